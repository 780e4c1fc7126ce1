// Package eventlog selects and opens the append-only log that mode events and
// the traced sequence are written to during a run.
package eventlog

import (
	"context"
	"fmt"
	"io"

	"lineagecore/internal/infra/persistence/memory"
	"lineagecore/internal/infra/persistence/postgres"
	"lineagecore/internal/infra/persistence/sqlite"
	"lineagecore/pkg/lineage"
)

// Driver names a log backend.
type Driver string

const (
	// DriverText writes tab-separated rows to a file.
	DriverText Driver = "text"
	// DriverMemory keeps rows in process memory.
	DriverMemory Driver = "memory"
	// DriverSQLite writes rows to a SQLite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres writes rows to a shared Postgres database.
	DriverPostgres Driver = "postgres"
	// DriverNone discards everything.
	DriverNone Driver = "none"
)

// Drivers lists the supported backends.
var Drivers = []Driver{DriverText, DriverMemory, DriverSQLite, DriverPostgres, DriverNone}

// ParseDriver validates a driver name; empty selects text.
func ParseDriver(s string) (Driver, error) {
	if s == "" {
		return DriverText, nil
	}
	for _, d := range Drivers {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown event log driver %q", s)
}

// Log is an event sink that must be closed at the end of a run.
type Log interface {
	lineage.EventSink
	io.Closer
}

// Reader is implemented by logs that can return what they recorded.
type Reader interface {
	Events(ctx context.Context) ([]lineage.ModeEvent, error)
	Sequence(ctx context.Context) (string, error)
}

// Config selects and parameterises a backend.
type Config struct {
	Driver Driver `yaml:"driver" json:"driver"`
	// Path is the file for the text and sqlite drivers.
	Path string `yaml:"path" json:"path"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn" json:"dsn"`
	// Run tags Postgres rows so several runs can share one database.
	Run string `yaml:"run" json:"run"`
}

// Open returns the log described by cfg.
func Open(ctx context.Context, cfg Config) (Log, error) {
	driver, err := ParseDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverText:
		return CreateText(cfg.Path)
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		s, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite event log: %w", err)
		}
		return s, nil
	case DriverPostgres:
		s, err := postgres.NewStore(ctx, cfg.DSN, cfg.Run)
		if err != nil {
			return nil, fmt.Errorf("open postgres event log: %w", err)
		}
		return s, nil
	default:
		return Discard{}, nil
	}
}

// Discard drops every row.
type Discard struct{}

// RecordMode implements lineage.EventSink.
func (Discard) RecordMode(lineage.ModeEvent) error { return nil }

// RecordSequence implements lineage.EventSink.
func (Discard) RecordSequence(lineage.MitoticMode) error { return nil }

// Close implements io.Closer.
func (Discard) Close() error { return nil }
