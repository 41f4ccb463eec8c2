package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/weather"
)

var errMalformed = errors.New("collection is not a JSON array")

// FileStore keeps the whole collection as one JSON array in a file. Every
// operation reads the full file and every write replaces it.
//
// mu serializes read-modify-write cycles within this process. Other
// processes writing the same file can still lose updates.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewFileStore opens the collection at path, creating it as an empty array
// if it is absent, empty or unparseable. An unparseable file is moved aside
// before being replaced.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{
		path:   path,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("creating weather data file", "path", s.path)
		return s.write(nil)
	case err != nil:
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return s.write(nil)
	}
	if _, err := decodeCollection(data); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		s.logger.Warn("weather data file is malformed, resetting",
			"path", s.path,
			"backup", backup,
			"error", err,
		)
		if err := os.Rename(s.path, backup); err != nil {
			return fmt.Errorf("move aside %s: %w", s.path, err)
		}
		return s.write(nil)
	}
	return nil
}

// List returns all records most recent first. A read or parse failure is
// logged and served as an empty list.
func (s *FileStore) List(_ context.Context) ([]weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		s.logger.Warn("weather data unreadable, serving empty list", "path", s.path, "error", err)
		metrics.ObserveDegradedList()
		return []weather.Record{}, nil
	}
	weather.SortByDateDesc(records)
	return records, nil
}

func (s *FileStore) Get(_ context.Context, id string) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return weather.Record{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	return records[i], nil
}

func (s *FileStore) Insert(_ context.Context, p weather.Patch) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return weather.Record{}, err
	}
	rec := weather.NewRecord(s.newID(), s.now(), p)
	records = append(records, rec)
	if err := s.write(records); err != nil {
		return weather.Record{}, err
	}
	return rec, nil
}

func (s *FileStore) Update(_ context.Context, id string, p weather.Patch) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return weather.Record{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	rec := records[i].Apply(p)
	rec.ID = id
	records[i] = rec
	if err := s.write(records); err != nil {
		return weather.Record{}, err
	}
	return rec, nil
}

func (s *FileStore) Delete(_ context.Context, id string) (weather.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return weather.Record{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	deleted := records[i]
	records = append(records[:i], records[i+1:]...)
	if err := s.write(records); err != nil {
		return weather.Record{}, err
	}
	return deleted, nil
}

// load reads the collection. A missing file is an empty collection and is
// recreated by the next write; unparseable content is an error.
func (s *FileStore) load() ([]weather.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []weather.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	records, err := decodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return records, nil
}

// write replaces the file through a temp file and rename, so readers never
// observe a half-written array.
func (s *FileStore) write(records []weather.Record) error {
	if records == nil {
		records = []weather.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".weather-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func decodeCollection(data []byte) ([]weather.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errMalformed
	}
	var records []weather.Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []weather.Record{}
	}
	return records, nil
}

func indexOf(records []weather.Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
