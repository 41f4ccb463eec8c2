package weather

import (
	"context"
)

// Provider abstracts an upstream weather API (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Lookup(ctx context.Context, q Query) (Observation, error)
}

// Store is the record store contract shared by every backend (flat file,
// document database, sqlite, memory).
type Store interface {
	// List returns all records, most recent date first. An unreadable
	// backing medium yields an empty list, not an error.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Insert(ctx context.Context, p Patch) (Record, error)
	Update(ctx context.Context, id string, p Patch) (Record, error)
	Delete(ctx context.Context, id string) (Record, error)
}
