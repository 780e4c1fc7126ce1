// Package sqlite persists mode events, the traced sequence and debug tables in
// a single SQLite file using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lineagecore/pkg/lineage"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultPath = "lineage.db"

const schema = `
CREATE TABLE IF NOT EXISTS mode_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time REAL NOT NULL,
	seed INTEGER NOT NULL,
	cell_id INTEGER NOT NULL,
	mode INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS mode_sequence (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mode INTEGER NOT NULL
);`

// Store is a SQLite-backed event store. Writes are serialized so rows keep
// the order in which divisions reported them.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps in-memory databases (":memory:") coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create event tables: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// DB exposes the handle so debug tables can share the file.
func (s *Store) DB() *sql.DB { return s.db }

// RecordMode implements lineage.EventSink.
func (s *Store) RecordMode(ev lineage.ModeEvent) error {
	return s.RecordModeContext(context.Background(), ev)
}

// RecordModeContext inserts one mode event.
func (s *Store) RecordModeContext(ctx context.Context, ev lineage.ModeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mode_events (time, seed, cell_id, mode) VALUES (?, ?, ?, ?)`,
		ev.Time, int64(ev.Seed), int64(ev.CellID), ev.Mode.Code())
	if err != nil {
		return fmt.Errorf("insert mode event: %w", err)
	}
	return nil
}

// RecordSequence implements lineage.EventSink.
func (s *Store) RecordSequence(mode lineage.MitoticMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`INSERT INTO mode_sequence (mode) VALUES (?)`, mode.Code()); err != nil {
		return fmt.Errorf("insert sequence mode: %w", err)
	}
	return nil
}

// Events returns all mode events in insertion order.
func (s *Store) Events(ctx context.Context) ([]lineage.ModeEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT time, seed, cell_id, mode FROM mode_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select mode events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []lineage.ModeEvent
	for rows.Next() {
		var (
			ev           lineage.ModeEvent
			seed, cellID int64
			mode         int64
		)
		if err := rows.Scan(&ev.Time, &seed, &cellID, &mode); err != nil {
			return nil, fmt.Errorf("scan mode event: %w", err)
		}
		ev.Seed, ev.CellID, ev.Mode = uint64(seed), uint64(cellID), lineage.MitoticMode(mode)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Sequence returns the traced mode codes as a string such as "0012".
func (s *Store) Sequence(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mode FROM mode_sequence ORDER BY id`)
	if err != nil {
		return "", fmt.Errorf("select sequence: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var b strings.Builder
	for rows.Next() {
		var mode int64
		if err := rows.Scan(&mode); err != nil {
			return "", fmt.Errorf("scan sequence: %w", err)
		}
		b.WriteByte(byte('0' + mode))
	}
	return b.String(), rows.Err()
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }
