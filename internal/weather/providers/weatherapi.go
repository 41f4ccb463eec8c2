package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-records/internal/weather"
)

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com. A
// single forecast call carries both current conditions and daily forecast.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type wapiCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type wapiResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64       `json:"temp_c"`
		FeelsLikeC float64       `json:"feelslike_c"`
		Humidity   float64       `json:"humidity"`
		WindKph    float64       `json:"wind_kph"`
		Condition  wapiCondition `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			DateEpoch int64 `json:"date_epoch"`
			Day       struct {
				AvgTempC  float64       `json:"avgtemp_c"`
				Condition wapiCondition `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) Lookup(ctx context.Context, q weather.Query) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, errors.New("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// "q" accepts a city, "city,country", a zip code or "lat,lon".
	values.Set("q", q.Text())
	values.Set("days", strconv.Itoa(weather.MaxForecastDays))

	var payload wapiResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL, values, &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("forecast: %w", err)
	}

	obs := weather.Observation{
		ProviderName: p.name,
		Location:     payload.Location.Name,
		Country:      payload.Location.Country,
		Temperature:  payload.Current.TempC,
		FeelsLike:    payload.Current.FeelsLikeC,
		Humidity:     payload.Current.Humidity,
		WindSpeed:    payload.Current.WindKph / 3.6,
		Description:  payload.Current.Condition.Text,
		Icon:         payload.Current.Condition.Icon,
	}
	for _, d := range payload.Forecast.ForecastDay {
		obs.Forecast = append(obs.Forecast, weather.ForecastPoint{
			Time:        time.Unix(d.DateEpoch, 0).UTC(),
			Temperature: d.Day.AvgTempC,
			Description: d.Day.Condition.Text,
			Icon:        d.Day.Condition.Icon,
		})
	}
	return obs, nil
}
