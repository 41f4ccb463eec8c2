package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/i474232898/weather-records/internal/weather"
)

func TestNewFileStoreInitializesCollection(t *testing.T) {
	cases := map[string]*string{
		"absent":     nil,
		"empty":      weather.String(""),
		"whitespace": weather.String("  \n"),
		"null":       weather.String("null"),
		"object":     weather.String(`{"a":1}`),
		"truncated":  weather.String(`[{"_id":"x"`),
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "weather-data.json")
			if content != nil {
				if err := os.WriteFile(path, []byte(*content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			s, err := NewFileStore(path, discardLogger())
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.TrimSpace(string(data)) != "[]" {
				t.Fatalf("expected file reset to [], got %q", data)
			}

			list, err := s.List(context.Background())
			if err != nil || len(list) != 0 {
				t.Fatalf("expected empty list, got %v, %v", list, err)
			}
		})
	}
}

func TestNewFileStoreMovesCorruptFileAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weather-data.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path, discardLogger()); err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	backups, _ := filepath.Glob(path + ".corrupt-*")
	if len(backups) != 1 {
		t.Fatalf("expected one backup file, got %v", backups)
	}
	data, _ := os.ReadFile(backups[0])
	if string(data) != "not json" {
		t.Fatalf("backup content changed: %q", data)
	}
}

func TestNewFileStoreKeepsValidCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather-data.json")
	existing := `[{"_id":"a","date":"2024-01-01T00:00:00Z","location":"Paris"}]`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	rec, err := s.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *rec.Location != "Paris" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestFileStoreListDegradesOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather-data.json")
	s, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Paris")}})

	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List must not fail on corruption: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d records", len(list))
	}

	// Write paths refuse to overwrite what they cannot read.
	if _, err := s.Insert(context.Background(), weather.Patch{}); err == nil {
		t.Fatal("expected Insert to fail on a corrupt file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{broken" {
		t.Fatalf("corrupt file was overwritten: %q", data)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather-data.json")
	first, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	rec := mustInsert(t, first, weather.Patch{Fields: weather.Fields{Country: weather.String("FR")}})

	second, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	got, err := second.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mustJSON(t, got) != mustJSON(t, rec) {
		t.Fatalf("got %s, want %s", mustJSON(t, got), mustJSON(t, rec))
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  {") {
		t.Fatalf("expected 2-space indented array, got %q", data)
	}
}

func TestFileStoreConcurrentInsertsAreNotLost(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "weather-data.json"), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Insert(context.Background(), weather.Patch{}); err != nil {
				t.Errorf("Insert: %v", err)
			}
		}()
	}
	wg.Wait()

	list, _ := s.List(context.Background())
	if len(list) != n {
		t.Fatalf("expected %d records, got %d", n, len(list))
	}
}

func TestFileStoreRecreatesRemovedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather-data.json")
	s, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	old := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Paris")}})

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := s.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after removal: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Delete(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete after removal: expected ErrNotFound, got %v", err)
	}

	rec := mustInsert(t, s, weather.Patch{Fields: weather.Fields{Location: weather.String("Tokyo")}})
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("expected only the new record, got %+v", list)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not recreated: %v", err)
	}
}
