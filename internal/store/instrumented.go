package store

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/weather"
)

// Instrumented wraps a weather.Store and records prometheus metrics for
// every call.
type Instrumented struct {
	next weather.Store
}

// Instrument returns s wrapped with metrics.
func Instrument(s weather.Store) *Instrumented {
	return &Instrumented{next: s}
}

func (i *Instrumented) List(ctx context.Context) ([]weather.Record, error) {
	start := time.Now()
	out, err := i.next.List(ctx)
	metrics.ObserveStore("list", result(err), time.Since(start))
	return out, err
}

func (i *Instrumented) Get(ctx context.Context, id string) (weather.Record, error) {
	start := time.Now()
	out, err := i.next.Get(ctx, id)
	metrics.ObserveStore("get", result(err), time.Since(start))
	return out, err
}

func (i *Instrumented) Insert(ctx context.Context, p weather.Patch) (weather.Record, error) {
	start := time.Now()
	out, err := i.next.Insert(ctx, p)
	metrics.ObserveStore("insert", result(err), time.Since(start))
	return out, err
}

func (i *Instrumented) Update(ctx context.Context, id string, p weather.Patch) (weather.Record, error) {
	start := time.Now()
	out, err := i.next.Update(ctx, id, p)
	metrics.ObserveStore("update", result(err), time.Since(start))
	return out, err
}

func (i *Instrumented) Delete(ctx context.Context, id string) (weather.Record, error) {
	start := time.Now()
	out, err := i.next.Delete(ctx, id)
	metrics.ObserveStore("delete", result(err), time.Since(start))
	return out, err
}

func result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
