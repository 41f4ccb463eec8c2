package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-records/internal/weather"
)

// GeocodeFunc resolves a city query to coordinates.
type GeocodeFunc func(ctx context.Context, q weather.Query) (lat, lon float64, err error)

// OpenMeteoProvider implements weather.Provider for Open-Meteo. The API only
// takes coordinates; city queries need a geocoder.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	geocode GeocodeFunc
}

// NewOpenMeteoProvider creates the provider. geocode may be nil, in which
// case only coordinate queries are served.
func NewOpenMeteoProvider(client *http.Client, geocode GeocodeFunc) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("openmeteo"),
		geocode: geocode,
	}
}

// GoogleGeocoder resolves city queries with the Google geocoding API.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	geocoder.ApiKey = apiKey
	return func(ctx context.Context, q weather.Query) (float64, float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		addr := geocoder.Address{City: q.City, Country: q.Country}
		if q.Kind == weather.QueryZip {
			addr = geocoder.Address{PostalCode: q.Zip, Country: q.Country}
		}
		loc, err := geocoder.Geocoding(addr)
		if err != nil {
			return 0, 0, fmt.Errorf("geocode %s: %w", q, err)
		}
		return loc.Latitude, loc.Longitude, nil
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type meteoResponse struct {
	Current struct {
		Temperature      float64 `json:"temperature_2m"`
		ApparentTemp     float64 `json:"apparent_temperature"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		WindSpeed        float64 `json:"wind_speed_10m"`
		WeatherCode      int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Lookup(ctx context.Context, q weather.Query) (weather.Observation, error) {
	lat, lon := q.Lat, q.Lon
	location := q.City
	if q.Kind != weather.QueryCoords {
		if p.geocode == nil {
			return weather.Observation{}, errors.New("openmeteo requires latitude and longitude")
		}
		var err error
		lat, lon, err = p.geocode(ctx, q)
		if err != nil {
			return weather.Observation{}, err
		}
		if q.Kind == weather.QueryZip {
			location = q.Zip
		}
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code")
	values.Set("daily", "temperature_2m_max,weather_code")
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")
	values.Set("forecast_days", strconv.Itoa(weather.MaxForecastDays))

	var payload meteoResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL, values, &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("forecast: %w", err)
	}

	obs := weather.Observation{
		ProviderName: p.name,
		Location:     location,
		Country:      q.Country,
		Temperature:  payload.Current.Temperature,
		FeelsLike:    payload.Current.ApparentTemp,
		Humidity:     payload.Current.RelativeHumidity,
		WindSpeed:    payload.Current.WindSpeed,
		Description:  describeMeteoCode(payload.Current.WeatherCode),
	}

	d := payload.Daily
	for i, day := range d.Time {
		ts, err := time.Parse(time.DateOnly, day)
		if err != nil || i >= len(d.TempMax) {
			continue
		}
		pt := weather.ForecastPoint{Time: ts, Temperature: d.TempMax[i]}
		if i < len(d.WeatherCode) {
			pt.Description = describeMeteoCode(d.WeatherCode[i])
		}
		obs.Forecast = append(obs.Forecast, pt)
	}
	return obs, nil
}

// describeMeteoCode maps WMO weather codes to short descriptions.
func describeMeteoCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code >= 1 && code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "snow"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
