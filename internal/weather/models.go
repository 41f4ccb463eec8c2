package weather

import (
	"slices"
	"time"
)

// MaxForecastDays is the maximum number of forecast entries kept on a record.
const MaxForecastDays = 5

// ForecastDay is one entry of a record's forecast. The store never inspects it.
type ForecastDay struct {
	Date        time.Time `json:"date" bson:"date"`
	Temperature float64   `json:"temperature" bson:"temperature"`
	Description string    `json:"description" bson:"description"`
	Icon        string    `json:"icon" bson:"icon"`
}

// Fields holds the client-supplied part of a record.
// A nil field is absent: it is omitted from JSON and left untouched by a merge.
type Fields struct {
	Location    *string       `json:"location,omitempty" bson:"location,omitempty"`
	Country     *string       `json:"country,omitempty" bson:"country,omitempty"`
	Temperature *float64      `json:"temperature,omitempty" bson:"temperature,omitempty"`
	FeelsLike   *float64      `json:"feelsLike,omitempty" bson:"feelsLike,omitempty"`
	Humidity    *float64      `json:"humidity,omitempty" bson:"humidity,omitempty"`
	WindSpeed   *float64      `json:"windSpeed,omitempty" bson:"windSpeed,omitempty"`
	Description *string       `json:"description,omitempty" bson:"description,omitempty"`
	Icon        *string       `json:"icon,omitempty" bson:"icon,omitempty"`
	Forecast    []ForecastDay `json:"forecast,omitempty" bson:"forecast,omitempty" validate:"omitempty,max=5"`
}

// Record is a persisted weather lookup.
type Record struct {
	ID     string    `json:"_id" bson:"_id"`
	Date   time.Time `json:"date" bson:"date"`
	Fields `bson:",inline"`
}

// Patch is a create or update payload. Any id supplied by a client is not
// part of a Patch and therefore never reaches a stored record.
type Patch struct {
	Date   *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Fields `bson:",inline"`
}

// NewRecord builds a freshly inserted record. The patch date is ignored:
// the insert time always wins.
func NewRecord(id string, now time.Time, p Patch) Record {
	return Record{
		ID:     id,
		Date:   now,
		Fields: Fields{}.merge(p.Fields),
	}
}

// Apply merges p over r field by field and returns the result. The id is
// never changed.
func (r Record) Apply(p Patch) Record {
	out := r
	if p.Date != nil {
		out.Date = p.Date.UTC()
	}
	out.Fields = r.Fields.merge(p.Fields)
	return out
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Fields.isEmpty()
}

// Clone returns a copy of r that shares no pointers or slices with it.
func (r Record) Clone() Record {
	out := r
	out.Fields = r.Fields.clone()
	return out
}

func (f Fields) clone() Fields {
	return Fields{
		Location:    clonePtr(f.Location),
		Country:     clonePtr(f.Country),
		Temperature: clonePtr(f.Temperature),
		FeelsLike:   clonePtr(f.FeelsLike),
		Humidity:    clonePtr(f.Humidity),
		WindSpeed:   clonePtr(f.WindSpeed),
		Description: clonePtr(f.Description),
		Icon:        clonePtr(f.Icon),
		Forecast:    slices.Clone(f.Forecast),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (f Fields) merge(p Fields) Fields {
	out := f
	if p.Location != nil {
		out.Location = p.Location
	}
	if p.Country != nil {
		out.Country = p.Country
	}
	if p.Temperature != nil {
		out.Temperature = p.Temperature
	}
	if p.FeelsLike != nil {
		out.FeelsLike = p.FeelsLike
	}
	if p.Humidity != nil {
		out.Humidity = p.Humidity
	}
	if p.WindSpeed != nil {
		out.WindSpeed = p.WindSpeed
	}
	if p.Description != nil {
		out.Description = p.Description
	}
	if p.Icon != nil {
		out.Icon = p.Icon
	}
	if p.Forecast != nil {
		out.Forecast = slices.Clone(p.Forecast)
	}
	return out
}

func (f Fields) isEmpty() bool {
	return f.Location == nil &&
		f.Country == nil &&
		f.Temperature == nil &&
		f.FeelsLike == nil &&
		f.Humidity == nil &&
		f.WindSpeed == nil &&
		f.Description == nil &&
		f.Icon == nil &&
		f.Forecast == nil
}

// SortByDateDesc orders records most recent first, keeping the existing
// order of records with equal dates.
func SortByDateDesc(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return b.Date.Compare(a.Date)
	})
}

// String and Float return pointers for building patches in code.
func String(s string) *string { return &s }

func Float(f float64) *float64 { return &f }
