package weather

import "time"

// ForecastPoint is a single upstream forecast sample (typically 3-hourly).
type ForecastPoint struct {
	Time        time.Time
	Temperature float64
	Description string
	Icon        string
}

// Observation is a provider's normalized answer to a lookup: current
// conditions plus the raw forecast samples.
type Observation struct {
	ProviderName string

	Location    string
	Country     string
	Temperature float64
	FeelsLike   float64
	Humidity    float64
	WindSpeed   float64 // m/s
	Description string
	Icon        string

	Forecast []ForecastPoint
}

// DailyForecast keeps the first sample of each UTC calendar day, in input
// order, up to limit days.
func DailyForecast(points []ForecastPoint, limit int) []ForecastDay {
	if limit <= 0 || len(points) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	days := make([]ForecastDay, 0, limit)
	for _, p := range points {
		if len(days) >= limit {
			break
		}
		ts := p.Time.UTC()
		key := ts.Format(time.DateOnly)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, ForecastDay{
			Date:        ts,
			Temperature: p.Temperature,
			Description: p.Description,
			Icon:        p.Icon,
		})
	}
	return days
}

// ToPatch shapes an observation into the payload stored for a lookup.
func (o Observation) ToPatch() Patch {
	p := Patch{
		Fields: Fields{
			Location:    String(o.Location),
			Country:     String(o.Country),
			Temperature: Float(o.Temperature),
			FeelsLike:   Float(o.FeelsLike),
			Humidity:    Float(o.Humidity),
			WindSpeed:   Float(o.WindSpeed),
			Description: String(o.Description),
			Icon:        String(o.Icon),
		},
	}
	if days := DailyForecast(o.Forecast, MaxForecastDays); len(days) > 0 {
		p.Forecast = days
	}
	return p
}
