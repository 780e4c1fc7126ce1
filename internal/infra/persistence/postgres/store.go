// Package postgres stores mode events in Postgres so that many simulation
// processes can append to one shared log. Rows are tagged with a run id.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"lineagecore/pkg/lineage"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/lineagecore?sslmode=disable"
	defaultRun    = "default"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS mode_events (
		id BIGSERIAL PRIMARY KEY,
		run TEXT NOT NULL,
		time DOUBLE PRECISION NOT NULL,
		seed BIGINT NOT NULL,
		cell_id BIGINT NOT NULL,
		mode SMALLINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mode_sequence (
		id BIGSERIAL PRIMARY KEY,
		run TEXT NOT NULL,
		mode SMALLINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS mode_events_run_idx ON mode_events (run, id)`,
}

// Store appends mode events for one run.
type Store struct {
	db  *sql.DB
	run string
	mu  sync.Mutex
}

// NewStore connects to dsn (falls back to a local default), applies the
// schema and binds the store to run.
func NewStore(ctx context.Context, dsn, run string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if run == "" {
		run = defaultRun
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyDDL(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, run: run}, nil
}

func applyDDL(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddl {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// Run returns the run id rows are tagged with.
func (s *Store) Run() string { return s.run }

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// RecordMode implements lineage.EventSink.
func (s *Store) RecordMode(ev lineage.ModeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO mode_events (run, time, seed, cell_id, mode) VALUES ($1, $2, $3, $4, $5)`,
		s.run, ev.Time, int64(ev.Seed), int64(ev.CellID), int64(ev.Mode.Code()))
	if err != nil {
		return fmt.Errorf("insert mode event: %w", err)
	}
	return nil
}

// RecordSequence implements lineage.EventSink.
func (s *Store) RecordSequence(mode lineage.MitoticMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO mode_sequence (run, mode) VALUES ($1, $2)`, s.run, int64(mode.Code()))
	if err != nil {
		return fmt.Errorf("insert sequence mode: %w", err)
	}
	return nil
}

// Events returns the run's events in insertion order.
func (s *Store) Events(ctx context.Context) ([]lineage.ModeEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT time, seed, cell_id, mode FROM mode_events WHERE run = $1 ORDER BY id`, s.run)
	if err != nil {
		return nil, fmt.Errorf("select mode events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []lineage.ModeEvent
	for rows.Next() {
		var (
			ev                 lineage.ModeEvent
			seed, cellID, mode int64
		)
		if err := rows.Scan(&ev.Time, &seed, &cellID, &mode); err != nil {
			return nil, fmt.Errorf("scan mode event: %w", err)
		}
		ev.Seed, ev.CellID, ev.Mode = uint64(seed), uint64(cellID), lineage.MitoticMode(mode)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mode events: %w", err)
	}
	return out, nil
}

// Sequence returns the run's traced mode codes.
func (s *Store) Sequence(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mode FROM mode_sequence WHERE run = $1 ORDER BY id`, s.run)
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
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate sequence: %w", err)
	}
	return b.String(), nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
