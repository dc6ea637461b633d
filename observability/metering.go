package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	clientprom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

var registry *clientprom.Registry
var meterProvider *sdkmetric.MeterProvider

// Meter is the global meter for the application, accessible by other packages.
var Meter metric.Meter

// InitMetrics sets up OTel metrics with two readers: a periodic OTLP push for
// a local collector and a pull-based Prometheus registry.
func InitMetrics(ctx context.Context, rsc *sdkresource.Resource) error {
	slog.Info("configuring OpenTelemetry metrics")

	otlpExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint("localhost:4327"),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	registry = clientprom.NewRegistry()
	prometheusExporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
	)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(rsc),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(10*time.Second))),
		sdkmetric.WithReader(prometheusExporter),
	)
	otel.SetMeterProvider(meterProvider)

	Meter = otel.Meter("promptcrawl/application")

	slog.Info("configured OpenTelemetry metrics")
	return nil
}

// GetMetrics renders the current Prometheus registry contents, with duration
// histograms filtered out for stable comparisons.
func GetMetrics(ctx context.Context) string {
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return strings.Join(lo.Filter(strings.Split(recorder.Body.String(), "\n"), func(str string, index int) bool {
		return !strings.Contains(str, "duration")
	}), "\n")
}

func ShutdownMetrics(ctx context.Context) error {
	if meterProvider == nil {
		return nil
	}
	return meterProvider.Shutdown(ctx)
}
