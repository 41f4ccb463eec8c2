package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-records/internal/api/http"
	"github.com/i474232898/weather-records/internal/config"
	"github.com/i474232898/weather-records/internal/logging"
	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/scheduler"
	"github.com/i474232898/weather-records/internal/store"
	"github.com/i474232898/weather-records/internal/weather"
	"github.com/i474232898/weather-records/internal/weather/providers"
)

const appName = "weather-records"

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Structured logger shared by every component.
	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	// Cancelled on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	// Record store selected by STORE_BACKEND.
	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	records, closeStore, err := store.Open(openCtx, cfg, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("error closing record store", "error", err)
		}
	}()

	// Core service orchestrating providers and store.
	service := weather.NewService(records, providers.FromConfig(cfg, logger), logger)

	// Scheduler that periodically looks up tracked locations.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, service, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP API and static client.
	app := httpapi.NewApp(service, httpapi.Options{
		AppName:   appName,
		StaticDir: cfg.StaticDir,
		AccessLog: true,
		Logger:    logger,
	})

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "backend", cfg.StoreBackend)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	// Wait for termination signal
	select {
	case err := <-errCh:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("error during shutdown", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
