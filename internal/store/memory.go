package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-records/internal/weather"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("weather data not found")
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// Records are copied in and out, so callers never alias stored values.
type MemoryStore struct {
	mu sync.RWMutex

	// insertion order
	records []weather.Record

	now   func() time.Time
	newID func() string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// List returns a copy of all records, most recent first.
func (s *MemoryStore) List(_ context.Context) ([]weather.Record, error) {
	s.mu.RLock()
	out := make([]weather.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	weather.SortByDateDesc(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.records, id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	return s.records[i].Clone(), nil
}

func (s *MemoryStore) Insert(_ context.Context, p weather.Patch) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := weather.NewRecord(s.newID(), s.now(), p)
	s.records = append(s.records, rec.Clone())
	return rec, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, p weather.Patch) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.records, id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	rec := s.records[i].Apply(p)
	rec.ID = id
	s.records[i] = rec.Clone()
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.records, id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	deleted := s.records[i]
	s.records = slices.Delete(s.records, i, i+1)
	return deleted, nil
}
