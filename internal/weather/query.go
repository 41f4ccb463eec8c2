package weather

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidQuery is returned for lookup queries that cannot be sent upstream.
var ErrInvalidQuery = errors.New("invalid location query")

// QueryKind tells providers how a Query identifies a place.
type QueryKind int

const (
	QueryCity QueryKind = iota
	QueryZip
	QueryCoords
)

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Query is a parsed free-text location: a city (optionally "city,country"),
// a US postal code, or a latitude/longitude pair.
type Query struct {
	Kind    QueryKind `json:"kind"`
	City    string    `json:"city,omitempty"`
	Country string    `json:"country,omitempty"`
	Zip     string    `json:"zip,omitempty"`
	Lat     float64   `json:"lat,omitempty"`
	Lon     float64   `json:"lon,omitempty"`
}

// ParseQuery classifies s. Two comma-separated numbers are coordinates and
// must be in range; five digits (optionally +4) are a US zip code; anything
// else is a city name.
func ParseQuery(s string) (Query, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Query{}, fmt.Errorf("%w: empty location", ErrInvalidQuery)
	}

	if parts := strings.Split(s, ","); len(parts) == 2 {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if latErr == nil && lonErr == nil {
			if lat < -90 || lat > 90 {
				return Query{}, fmt.Errorf("%w: latitude must be between -90 and 90 degrees", ErrInvalidQuery)
			}
			if lon < -180 || lon > 180 {
				return Query{}, fmt.Errorf("%w: longitude must be between -180 and 180 degrees", ErrInvalidQuery)
			}
			return Query{Kind: QueryCoords, Lat: lat, Lon: lon}, nil
		}
		city := strings.TrimSpace(parts[0])
		country := strings.TrimSpace(parts[1])
		if city == "" {
			return Query{}, fmt.Errorf("%w: missing city before ','", ErrInvalidQuery)
		}
		return Query{Kind: QueryCity, City: city, Country: country}, nil
	}

	if zipRe.MatchString(s) {
		return Query{Kind: QueryZip, Zip: s, Country: "US"}, nil
	}

	return Query{Kind: QueryCity, City: s}, nil
}

// Text renders the query the way most upstream APIs accept it in a single
// "q" parameter.
func (q Query) Text() string {
	switch q.Kind {
	case QueryCoords:
		return fmt.Sprintf("%f,%f", q.Lat, q.Lon)
	case QueryZip:
		return q.Zip
	default:
		if q.Country != "" {
			return q.City + "," + q.Country
		}
		return q.City
	}
}

// String is used as a log key.
func (q Query) String() string {
	return q.Text()
}
