package providers

import (
	"log/slog"
	"net/http"

	"github.com/i474232898/weather-records/internal/config"
	"github.com/i474232898/weather-records/internal/weather"
)

// FromConfig builds the provider chain in lookup order. Providers without
// credentials are skipped; Open-Meteo needs none and always comes last.
func FromConfig(cfg *config.AppConfig, logger *slog.Logger) []weather.Provider {
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	var list []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		list = append(list, NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey))
	} else {
		logger.Info("OPENWEATHER_API_KEY not set, openweathermap disabled")
	}
	if cfg.WeatherAPIKey != "" {
		list = append(list, NewWeatherAPIProvider(client, cfg.WeatherAPIKey))
	} else {
		logger.Info("WEATHERAPI_API_KEY not set, weatherapi disabled")
	}

	var geocode GeocodeFunc
	if cfg.GeocoderAPIKey != "" {
		geocode = GoogleGeocoder(cfg.GeocoderAPIKey)
	} else {
		logger.Info("GEOCODER_API_KEY not set, openmeteo limited to coordinate queries")
	}
	list = append(list, NewOpenMeteoProvider(client, geocode))

	for i, p := range list {
		list[i] = NewRateLimitedProvider(p, cfg.LookupRPS, cfg.LookupBurst)
	}
	return list
}
