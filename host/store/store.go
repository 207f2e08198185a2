// Package store persists drift samples to SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gotick/host/monitor"
)

const schema = `
CREATE TABLE IF NOT EXISTS drift_samples (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	at        INTEGER NOT NULL,
	drift     INTEGER NOT NULL,
	tick_rate REAL    NOT NULL,
	uptime    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS drift_samples_at ON drift_samples(at);
`

// Store is a SQLite-backed drift sample log. It satisfies
// monitor.Sink.
type Store struct {
	db *sql.DB
}

// Open creates or opens the sample database at path, applying the
// schema if needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Append implements monitor.Sink.
func (s *Store) Append(ctx context.Context, sample monitor.Sample) error {
	when := sample.When
	if when.IsZero() {
		when = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drift_samples(at, drift, tick_rate, uptime) VALUES(?,?,?,?)`,
		when.UnixMilli(), sample.Drift, sample.TickRate, int64(sample.Uptime),
	)
	return err
}

// Recent returns up to n samples, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]monitor.Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, drift, tick_rate, uptime FROM drift_samples
		 ORDER BY at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []monitor.Sample
	for rows.Next() {
		var at, drift, uptime int64
		var rate float64
		if err := rows.Scan(&at, &drift, &rate, &uptime); err != nil {
			return nil, err
		}
		out = append(out, monitor.Sample{
			When:     time.UnixMilli(at),
			Drift:    drift,
			TickRate: rate,
			Uptime:   uint64(uptime),
		})
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
