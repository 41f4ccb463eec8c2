package weather

import (
	"encoding/json"
	"testing"
	"time"
)

func TestApplyMergesOnlySuppliedFields(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := Record{
		ID:   "a",
		Date: date,
		Fields: Fields{
			Location:    String("Paris"),
			Description: String("sunny"),
			Temperature: Float(20),
		},
	}

	out := rec.Apply(Patch{Fields: Fields{Description: String("cloudy")}})

	if out.ID != "a" || !out.Date.Equal(date) {
		t.Fatalf("id or date changed: %+v", out)
	}
	if *out.Description != "cloudy" || *out.Location != "Paris" || *out.Temperature != 20 {
		t.Fatalf("unexpected merge: %+v", out.Fields)
	}
	if *rec.Description != "sunny" {
		t.Fatal("Apply must not modify the receiver")
	}
}

func TestApplyDateIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)

	out := Record{ID: "a"}.Apply(Patch{Date: &d})
	if out.Date.Location() != time.UTC || !out.Date.Equal(d) {
		t.Fatalf("expected same instant in UTC, got %v", out.Date)
	}
}

func TestApplyClonesForecast(t *testing.T) {
	forecast := []ForecastDay{{Temperature: 1}}
	out := Record{}.Apply(Patch{Fields: Fields{Forecast: forecast}})
	forecast[0].Temperature = 99
	if out.Forecast[0].Temperature != 1 {
		t.Fatal("forecast must be copied on merge")
	}
}

func TestNewRecordIgnoresPatchDate(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)

	rec := NewRecord("id", now, Patch{Date: &past, Fields: Fields{Country: String("FR")}})
	if !rec.Date.Equal(now) || rec.ID != "id" || *rec.Country != "FR" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestPatchJSONIgnoresID(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"_id":"evil","location":"Paris","unknown":true}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *p.Location != "Paris" {
		t.Fatalf("unexpected patch %+v", p)
	}
	if !(Patch{}).IsEmpty() || p.IsEmpty() {
		t.Fatal("IsEmpty mismatch")
	}
}

func TestRecordJSONShape(t *testing.T) {
	rec := Record{
		ID:     "abc",
		Date:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Fields: Fields{FeelsLike: Float(3.5)},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"_id":"abc","date":"2024-01-02T03:04:05Z","feelsLike":3.5}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestSortByDateDescIsStable(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: "old", Date: t0},
		{ID: "tie1", Date: t0.Add(time.Hour)},
		{ID: "new", Date: t0.Add(2 * time.Hour)},
		{ID: "tie2", Date: t0.Add(time.Hour)},
	}
	SortByDateDesc(records)

	want := []string{"new", "tie1", "tie2", "old"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, records[i].ID, id)
		}
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{
		ID: "a",
		Fields: Fields{
			Location:    String("Paris"),
			Temperature: Float(20),
			Forecast:    []ForecastDay{{Temperature: 1}},
		},
	}

	cp := rec.Clone()
	*cp.Location = "Tokyo"
	*cp.Temperature = 30
	cp.Forecast[0].Temperature = 99

	if *rec.Location != "Paris" || *rec.Temperature != 20 || rec.Forecast[0].Temperature != 1 {
		t.Fatalf("clone shares memory with original: %+v", rec.Fields)
	}
	if (Record{}).Clone().Forecast != nil || (Record{}).Clone().Location != nil {
		t.Fatal("absent fields must stay absent")
	}
}
