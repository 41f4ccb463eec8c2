package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoProviders is returned by Lookup when no upstream provider is configured.
var ErrNoProviders = errors.New("no weather providers configured")

// UpstreamError reports that every provider failed a lookup.
type UpstreamError struct {
	Query  Query
	Errors []error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("all providers failed for %s: %v", e.Query, errors.Join(e.Errors...))
}

func (e *UpstreamError) Unwrap() []error {
	return e.Errors
}

// Service exposes the record store to the handler layer and turns upstream
// lookups into stored records.
type Service struct {
	store     Store
	providers []Provider
	logger    *slog.Logger
}

// NewService creates a new Service. providers may be empty, in which case
// Lookup fails with ErrNoProviders.
func NewService(store Store, providers []Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		providers: providers,
		logger:    logger,
	}
}

// List delegates to the underlying store.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// Get delegates to the underlying store.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

// Create delegates to the underlying store.
func (s *Service) Create(ctx context.Context, p Patch) (Record, error) {
	return s.store.Insert(ctx, p)
}

// Update delegates to the underlying store.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Record, error) {
	return s.store.Update(ctx, id, p)
}

// Delete delegates to the underlying store.
func (s *Service) Delete(ctx context.Context, id string) (Record, error) {
	return s.store.Delete(ctx, id)
}

// Observe asks providers in order and returns the first successful
// observation.
func (s *Service) Observe(ctx context.Context, q Query) (Observation, error) {
	if len(s.providers) == 0 {
		return Observation{}, ErrNoProviders
	}

	var errs []error
	for _, p := range s.providers {
		obs, err := p.Lookup(ctx, q)
		if err != nil {
			s.logger.Warn("provider lookup failed", "provider", p.Name(), "query", q.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if obs.ProviderName == "" {
			obs.ProviderName = p.Name()
		}
		return obs, nil
	}
	return Observation{}, &UpstreamError{Query: q, Errors: errs}
}

// LookupAndStore fetches current conditions and forecast for q and inserts
// them as a new record.
func (s *Service) LookupAndStore(ctx context.Context, q Query) (Record, error) {
	obs, err := s.Observe(ctx, q)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.store.Insert(ctx, obs.ToPatch())
	if err != nil {
		return Record{}, fmt.Errorf("store lookup result: %w", err)
	}
	s.logger.Debug("lookup stored", "provider", obs.ProviderName, "query", q.String(), "id", rec.ID)
	return rec, nil
}
