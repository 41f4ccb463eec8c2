package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/weather"
)

// RateLimitedProvider wraps a weather.Provider with a token-bucket limiter
// and counts every lookup by result.
type RateLimitedProvider struct {
	provider weather.Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rps lookups per second (fractional values
// allowed) with the given burst.
func NewRateLimitedProvider(provider weather.Provider, rps float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedProvider) Lookup(ctx context.Context, q weather.Query) (weather.Observation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		metrics.ObserveLookup(r.provider.Name(), "rate_limited")
		return weather.Observation{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	obs, err := r.provider.Lookup(ctx, q)
	if err != nil {
		metrics.ObserveLookup(r.provider.Name(), metrics.ResultError)
		return weather.Observation{}, err
	}
	metrics.ObserveLookup(r.provider.Name(), metrics.ResultSuccess)
	return obs, nil
}

// Name returns the wrapped provider's name so logs and metrics stay stable.
func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

var _ weather.Provider = (*RateLimitedProvider)(nil)
