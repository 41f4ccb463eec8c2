package weather

import (
	"testing"
	"time"
)

func TestDailyForecastKeepsFirstSamplePerDay(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var points []ForecastPoint
	// 3-hourly samples over 7 days.
	for h := 9; h < 7*24; h += 3 {
		points = append(points, ForecastPoint{
			Time:        day.Add(time.Duration(h) * time.Hour),
			Temperature: float64(h),
		})
	}

	days := DailyForecast(points, MaxForecastDays)
	if len(days) != MaxForecastDays {
		t.Fatalf("expected %d days, got %d", MaxForecastDays, len(days))
	}
	if days[0].Temperature != 9 || days[1].Temperature != 24 {
		t.Fatalf("expected first sample of each day, got %v and %v", days[0].Temperature, days[1].Temperature)
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Date.After(days[i-1].Date) {
			t.Fatalf("days out of order at %d", i)
		}
	}
}

func TestDailyForecastEdgeCases(t *testing.T) {
	if DailyForecast(nil, 5) != nil {
		t.Fatal("expected nil for no points")
	}
	if DailyForecast([]ForecastPoint{{Time: time.Now()}}, 0) != nil {
		t.Fatal("expected nil for zero limit")
	}
}

func TestObservationToPatch(t *testing.T) {
	obs := Observation{
		Location:    "Paris",
		Country:     "FR",
		Temperature: 18,
		Description: "clear",
		Forecast: []ForecastPoint{
			{Time: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), Temperature: 20},
		},
	}

	p := obs.ToPatch()
	if p.Date != nil {
		t.Fatal("lookups must not carry a date")
	}
	if *p.Location != "Paris" || *p.Country != "FR" || *p.Temperature != 18 || *p.Description != "clear" {
		t.Fatalf("unexpected patch %+v", p.Fields)
	}
	if len(p.Forecast) != 1 || p.Forecast[0].Temperature != 20 {
		t.Fatalf("unexpected forecast %+v", p.Forecast)
	}

	if (Observation{}).ToPatch().Forecast != nil {
		t.Fatal("no forecast points must leave forecast absent")
	}
}
