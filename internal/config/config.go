package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-records/internal/weather"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// StaticDir holds the single-page client. Empty disables static serving.
	StaticDir string

	StoreBackend    string
	DataFile        string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	SQLitePath      string

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// LookupRPS and LookupBurst rate-limit calls to each provider.
	LookupRPS   float64
	LookupBurst int

	// FetchInterval controls how often tracked locations are looked up.
	FetchInterval time.Duration

	// Locations to look up on every FetchInterval tick.
	Locations []weather.Query
}

// Load reads configuration from a .env file (if any) and the environment,
// with defaults matching a local single-user deployment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AppEnv = strings.TrimSpace(getenvDefault("APP_ENV", "dev"))
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.Port = getenvDefault("PORT", "3000")
	cfg.StaticDir = getenvDefault("STATIC_DIR", "public")

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", BackendFile))
	switch cfg.StoreBackend {
	case BackendFile, BackendMongo, BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (allowed: file, mongo, sqlite, memory)", cfg.StoreBackend)
	}
	cfg.DataFile = getenvDefault("DB_FILE", "./weather-data.json")
	cfg.MongoURI = getenvDefault("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDatabase = getenvDefault("MONGO_DATABASE", "weather")
	cfg.MongoCollection = getenvDefault("MONGO_COLLECTION", "weather_records")
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "./weather-data.db")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	rpsStr := getenvDefault("LOOKUP_RPS", "1")
	cfg.LookupRPS, err = strconv.ParseFloat(rpsStr, 64)
	if err != nil || cfg.LookupRPS <= 0 {
		return nil, fmt.Errorf("invalid LOOKUP_RPS %q (expected a positive number)", rpsStr)
	}
	cfg.LookupBurst, err = getenvInt("LOOKUP_BURST", 2)
	if err != nil {
		return nil, err
	}
	if cfg.LookupBurst < 1 {
		return nil, fmt.Errorf("invalid LOOKUP_BURST %d (expected at least 1)", cfg.LookupBurst)
	}

	// Scheduler interval: default 15 minutes.
	cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.Locations, err = parseLocations(os.Getenv("WEATHER_LOCATIONS"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseLocations splits a ';'-separated list of lookup queries. Commas are
// part of a query ("Paris,FR", "48.85,2.35").
func parseLocations(s string) ([]weather.Query, error) {
	var locs []weather.Query
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		q, err := weather.ParseQuery(part)
		if err != nil {
			return nil, fmt.Errorf("invalid WEATHER_LOCATIONS entry %q: %w", part, err)
		}
		locs = append(locs, q)
	}
	return locs, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q (expected an integer)", key, v)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
