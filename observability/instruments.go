package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var Instruments *instruments

type instruments struct {
	PagesFetched      metric.Int64Counter
	ChunksExtracted   metric.Int64Counter
	ExtractionRetries metric.Int64Counter
	ItemsExtracted    metric.Int64Counter
}

func InitInstruments(meter metric.Meter) error {
	var err error
	Instruments, err = NewInstruments(meter, "promptcrawl")
	return err
}

func NewInstruments(meter metric.Meter, prefix string) (*instruments, error) {
	ret := &instruments{}
	var err error

	ret.PagesFetched, err = meter.Int64Counter(prefix + "_pages_fetched")
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	ret.ChunksExtracted, err = meter.Int64Counter(prefix + "_chunks_extracted")
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	ret.ExtractionRetries, err = meter.Int64Counter(prefix + "_extraction_retries")
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	ret.ItemsExtracted, err = meter.Int64Counter(prefix + "_items_extracted")
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return ret, nil
}

func add(ctx context.Context, ic metric.Int64Counter, incr int64, kvs ...attribute.KeyValue) {
	if ic == nil {
		return
	}
	ic.Add(ctx, incr, metric.WithAttributes(kvs...))
}

func PageFetched(ctx context.Context) {
	if Instruments == nil {
		return
	}
	add(ctx, Instruments.PagesFetched, 1)
}

func ChunkExtracted(ctx context.Context, backend string) {
	if Instruments == nil {
		return
	}
	add(ctx, Instruments.ChunksExtracted, 1, attribute.String("backend", backend))
}

func ExtractionRetry(ctx context.Context, backend string) {
	if Instruments == nil {
		return
	}
	add(ctx, Instruments.ExtractionRetries, 1, attribute.String("backend", backend))
}

func ItemsExtracted(ctx context.Context, n int) {
	if Instruments == nil || n == 0 {
		return
	}
	add(ctx, Instruments.ItemsExtracted, int64(n))
}
