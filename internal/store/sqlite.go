package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/weather"
)

//go:embed sql/schema.sql
var schemaSQL string

const (
	listRecordsSQL  = `SELECT doc FROM weather_records ORDER BY date_unix_nano DESC, rowid ASC`
	getRecordSQL    = `SELECT doc FROM weather_records WHERE id = ?`
	insertRecordSQL = `INSERT INTO weather_records (id, date_unix_nano, doc) VALUES (?, ?, ?)`
	updateRecordSQL = `UPDATE weather_records SET date_unix_nano = ?, doc = ? WHERE id = ?`
	deleteRecordSQL = `DELETE FROM weather_records WHERE id = ?`
)

// SQLiteStore keeps each record as a JSON document in one row.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn, err := buildSQLiteDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	s, err := NewSQLiteStore(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and applies the schema.
func NewSQLiteStore(db *sql.DB, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List returns all records most recent first. A query or decode failure is
// logged and served as an empty list.
func (s *SQLiteStore) List(ctx context.Context) ([]weather.Record, error) {
	records, err := s.list(ctx)
	if err != nil {
		s.logger.Warn("weather records unreadable, serving empty list", "error", err)
		metrics.ObserveDegradedList()
		return []weather.Record{}, nil
	}
	return records, nil
}

func (s *SQLiteStore) list(ctx context.Context) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, listRecordsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close weather rows", "error", err)
		}
	}()

	out := []weather.Record{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec weather.Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (weather.Record, error) {
	return getDoc(ctx, s.db, id)
}

func (s *SQLiteStore) Insert(ctx context.Context, p weather.Patch) (weather.Record, error) {
	rec := weather.NewRecord(s.newID(), s.now(), p)
	doc, err := json.Marshal(rec)
	if err != nil {
		return weather.Record{}, fmt.Errorf("encode record: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertRecordSQL, rec.ID, rec.Date.UnixNano(), string(doc)); err != nil {
		return weather.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, p weather.Patch) (weather.Record, error) {
	var out weather.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rec, err := getDoc(ctx, tx, id)
		if err != nil {
			return err
		}
		rec = rec.Apply(p)
		rec.ID = id
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, updateRecordSQL, rec.Date.UnixNano(), string(doc), id); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		out = rec
		return nil
	})
	return out, err
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (weather.Record, error) {
	var out weather.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rec, err := getDoc(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, deleteRecordSQL, id); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		out = rec
		return nil
	})
	return out, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDoc(ctx context.Context, q queryRower, id string) (weather.Record, error) {
	var doc string
	err := q.QueryRowContext(ctx, getRecordSQL, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Record{}, ErrNotFound
	}
	if err != nil {
		return weather.Record{}, fmt.Errorf("get record %q: %w", id, err)
	}
	var rec weather.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return weather.Record{}, fmt.Errorf("decode record %q: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func buildSQLiteDSN(path string) (string, error) {
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if path == ":memory:" {
		return path, nil
	}

	// If caller provided something like "file:/data/app.db?x=y", don't double-wrap
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	// Ensure directory exists for file-backed sqlite db
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
