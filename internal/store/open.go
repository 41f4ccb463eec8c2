package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i474232898/weather-records/internal/config"
	"github.com/i474232898/weather-records/internal/weather"
)

// Open builds the backend selected by cfg.StoreBackend, wrapped with
// metrics. The returned close function releases backend resources.
func Open(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (weather.Store, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("backend", cfg.StoreBackend)
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendFile:
		s, err := NewFileStore(cfg.DataFile, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("record store ready", "path", cfg.DataFile)
		return Instrument(s), noop, nil

	case config.BackendMongo:
		s, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("record store ready", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		return Instrument(s), func() error { return s.Close(context.Background()) }, nil

	case config.BackendSQLite:
		s, err := OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("record store ready", "path", cfg.SQLitePath)
		return Instrument(s), s.Close, nil

	case config.BackendMemory:
		logger.Warn("records are kept in memory and lost on exit")
		return Instrument(NewMemoryStore()), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
