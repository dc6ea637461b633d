package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var tracerProvider *sdktrace.TracerProvider

// InitTracing sends crawl spans to a local OTLP collector.
func InitTracing(ctx context.Context, rsc *sdkresource.Resource) error {
	slog.Info("configuring OpenTelemetry tracing")

	otlpExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint("localhost:4327"),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(rsc),
		sdktrace.WithBatcher(otlpExp),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Info("configured OpenTelemetry tracing")
	return nil
}

func ShutdownTracing(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}
