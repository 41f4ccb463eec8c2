// Package handler is the serverless entry point: one function serving
// /api/weather, initialized on the first request of each instance.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	httpapi "github.com/i474232898/weather-records/internal/api/http"
	"github.com/i474232898/weather-records/internal/config"
	"github.com/i474232898/weather-records/internal/logging"
	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/store"
	"github.com/i474232898/weather-records/internal/weather"
	"github.com/i474232898/weather-records/internal/weather/providers"
)

const appName = "weather-records-fn"

var (
	mu    sync.Mutex
	serve http.HandlerFunc
)

// Handler serves one request.
func Handler(w http.ResponseWriter, r *http.Request) {
	h, err := instance()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	h(w, r)
}

// instance returns the initialized app. A failed setup is not cached, so
// the next request tries again.
func instance() (http.HandlerFunc, error) {
	mu.Lock()
	defer mu.Unlock()

	if serve != nil {
		return serve, nil
	}
	h, err := setup()
	if err != nil {
		return nil, err
	}
	serve = h
	return serve, nil
}

func setup() (http.HandlerFunc, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg, "function", appName)
	metrics.Init()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The store lives as long as the function instance.
	st, _, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		return nil, err
	}

	svc := weather.NewService(st, providers.FromConfig(cfg, logger), logger)
	app := httpapi.NewFunctionApp(svc, httpapi.Options{AppName: appName, Logger: logger})
	return adaptor.FiberApp(app), nil
}
