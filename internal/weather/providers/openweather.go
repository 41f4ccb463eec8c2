package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-records/internal/weather"
)

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap using
// the current-conditions and 3-hourly forecast endpoints.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrent struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []owmCondition `json:"weather"`
}

type owmForecast struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) Lookup(ctx context.Context, q weather.Query) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, errors.New("openweather api key is not configured")
	}

	params := p.params(q)

	var cur owmCurrent
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/weather", params, &cur); err != nil {
		return weather.Observation{}, fmt.Errorf("current conditions: %w", err)
	}

	var fc owmForecast
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/forecast", params, &fc); err != nil {
		return weather.Observation{}, fmt.Errorf("forecast: %w", err)
	}

	obs := weather.Observation{
		ProviderName: p.name,
		Location:     cur.Name,
		Country:      cur.Sys.Country,
		Temperature:  cur.Main.Temp,
		FeelsLike:    cur.Main.FeelsLike,
		Humidity:     cur.Main.Humidity,
		WindSpeed:    cur.Wind.Speed,
	}
	if len(cur.Weather) > 0 {
		obs.Description = cur.Weather[0].Description
		obs.Icon = cur.Weather[0].Icon
	}

	for _, item := range fc.List {
		pt := weather.ForecastPoint{
			Time:        time.Unix(item.Dt, 0).UTC(),
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			pt.Description = item.Weather[0].Description
			pt.Icon = item.Weather[0].Icon
		}
		obs.Forecast = append(obs.Forecast, pt)
	}
	return obs, nil
}

func (p *OpenWeatherProvider) params(q weather.Query) url.Values {
	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	switch q.Kind {
	case weather.QueryCoords:
		values.Set("lat", fmt.Sprintf("%f", q.Lat))
		values.Set("lon", fmt.Sprintf("%f", q.Lon))
	case weather.QueryZip:
		values.Set("zip", q.Zip+","+q.Country)
	default:
		values.Set("q", q.Text())
	}
	return values
}
