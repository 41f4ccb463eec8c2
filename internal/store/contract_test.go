package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weather-records/internal/weather"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type factory func(t *testing.T) weather.Store

func backends() map[string]factory {
	return map[string]factory{
		"memory": func(t *testing.T) weather.Store {
			s := NewMemoryStore()
			s.now = stepClock()
			return s
		},
		"file": func(t *testing.T) weather.Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "weather-data.json"), discardLogger())
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			s.now = stepClock()
			return s
		},
		"sqlite": func(t *testing.T) weather.Store {
			db, err := sql.Open("sqlite3", ":memory:")
			if err != nil {
				t.Fatalf("sql.Open: %v", err)
			}
			db.SetMaxOpenConns(1)
			s, err := NewSQLiteStore(db, discardLogger())
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			s.now = stepClock()
			return s
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func mustInsert(t *testing.T, s weather.Store, p weather.Patch) weather.Record {
	t.Helper()
	rec, err := s.Insert(context.Background(), p)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return rec
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			runContract(t, newStore)
		})
	}
}

func runContract(t *testing.T, newStore factory) {
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if list == nil || len(list) != 0 {
			t.Fatalf("expected empty non-nil list, got %#v", list)
		}
	})

	t.Run("list is most recent first", func(t *testing.T) {
		s := newStore(t)
		a := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Paris")}})
		b := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Tokyo")}})
		c := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Lima")}})

		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{c.ID, b.ID, a.ID}
		if len(list) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(list))
		}
		for i, id := range want {
			if list[i].ID != id {
				t.Fatalf("position %d: got %s, want %s", i, list[i].ID, id)
			}
		}
	})

	t.Run("get returns inserted record", func(t *testing.T) {
		s := newStore(t)
		rec := mustInsert(t, s, weather.Patch{Fields: weather.Fields{
			Location:    weather.String("Paris"),
			Temperature: weather.Float(18.5),
			Forecast: []weather.ForecastDay{
				{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Temperature: 10, Description: "rain", Icon: "10d"},
			},
		}})
		if rec.ID == "" || rec.Date.IsZero() {
			t.Fatalf("insert must assign id and date: %+v", rec)
		}

		got, err := s.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if mustJSON(t, got) != mustJSON(t, rec) {
			t.Fatalf("got %s, want %s", mustJSON(t, got), mustJSON(t, rec))
		}
	})

	t.Run("insert ignores client date", func(t *testing.T) {
		s := newStore(t)
		past := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
		rec := mustInsert(t, s, weather.Patch{Date: &past})
		if rec.Date.Equal(past) {
			t.Fatal("insert must stamp its own date")
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := newStore(t)
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			rec := mustInsert(t, s, weather.Patch{})
			if seen[rec.ID] {
				t.Fatalf("duplicate id %s", rec.ID)
			}
			seen[rec.ID] = true
		}
	})

	t.Run("update merges one field", func(t *testing.T) {
		s := newStore(t)
		a := mustInsert(t, s, weather.Patch{Fields: weather.Fields{
			Location:    weather.String("Paris"),
			Description: weather.String("sunny"),
			Humidity:    weather.Float(40),
		}})

		updated, err := s.Update(ctx, a.ID, weather.Patch{Fields: weather.Fields{Description: weather.String("cloudy")}})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.ID != a.ID || *updated.Description != "cloudy" || *updated.Location != "Paris" {
			t.Fatalf("unexpected update result %+v", updated)
		}

		expected := a
		expected.Description = weather.String("cloudy")
		if mustJSON(t, updated) != mustJSON(t, expected) {
			t.Fatalf("update touched other fields: got %s, want %s", mustJSON(t, updated), mustJSON(t, expected))
		}

		got, err := s.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if mustJSON(t, got) != mustJSON(t, updated) {
			t.Fatalf("update not persisted: %s", mustJSON(t, got))
		}
	})

	t.Run("empty update keeps record", func(t *testing.T) {
		s := newStore(t)
		a := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Paris")}})
		got, err := s.Update(ctx, a.ID, weather.Patch{})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if mustJSON(t, got) != mustJSON(t, a) {
			t.Fatalf("empty patch changed record: %s", mustJSON(t, got))
		}
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		s := newStore(t)
		a := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Paris")}})
		b := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Tokyo")}})

		deleted, err := s.Delete(ctx, a.ID)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if deleted.ID != a.ID {
			t.Fatalf("deleted %s, want %s", deleted.ID, a.ID)
		}
		if _, err := s.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		list, _ := s.List(ctx)
		if len(list) != 1 || list[0].ID != b.ID {
			t.Fatalf("unexpected remaining records %+v", list)
		}
	})

	t.Run("unknown id is not found and changes nothing", func(t *testing.T) {
		s := newStore(t)
		mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Paris")}})
		before, _ := s.List(ctx)

		if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Update(ctx, "missing", weather.Patch{Fields: weather.Fields{Location: weather.String("x")}}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Update: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Delete: expected ErrNotFound, got %v", err)
		}

		after, _ := s.List(ctx)
		if mustJSON(t, before) != mustJSON(t, after) {
			t.Fatalf("collection changed: %s -> %s", mustJSON(t, before), mustJSON(t, after))
		}
	})

	t.Run("update date reorders list", func(t *testing.T) {
		s := newStore(t)
		a := mustInsert(t, s, weather.Patch{})
		b := mustInsert(t, s, weather.Patch{})

		later := b.Date.Add(time.Hour)
		if _, err := s.Update(ctx, a.ID, weather.Patch{Date: &later}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		list, _ := s.List(ctx)
		if list[0].ID != a.ID || list[1].ID != b.ID {
			t.Fatalf("expected [A, B] after moving A's date, got [%s, %s]", list[0].ID, list[1].ID)
		}
	})
}
