package debugrec

import (
	"fmt"
	"io"

	"lineagecore/internal/infra/persistence/sqlite"
	"lineagecore/pkg/lineage"
)

// Format names a debug output format.
type Format string

const (
	FormatText   Format = "text"
	FormatMemory Format = "memory"
	FormatSQLite Format = "sqlite"
)

// Config selects where debug rows go.
type Config struct {
	Format Format `yaml:"format" json:"format"`
	Path   string `yaml:"path" json:"path"`
	// Table names the SQLite table; defaults to "debug".
	Table string `yaml:"table" json:"table"`
}

// Writer is a column writer owned by the caller.
type Writer interface {
	lineage.ColumnWriter
	io.Closer
}

// Open returns the writer described by cfg.
func Open(cfg Config) (Writer, error) {
	switch cfg.Format {
	case "", FormatText:
		return CreateText(cfg.Path)
	case FormatMemory:
		return NewMemory(), nil
	case FormatSQLite:
		store, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite debug store: %w", err)
		}
		table := cfg.Table
		if table == "" {
			table = "debug"
		}
		tbl, err := sqlite.NewDebugTable(store.DB(), table)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return &sqliteWriter{DebugTable: tbl, store: store}, nil
	default:
		return nil, fmt.Errorf("unknown debug format %q", cfg.Format)
	}
}

type sqliteWriter struct {
	*sqlite.DebugTable
	store *sqlite.Store
}

func (w *sqliteWriter) Close() error { return w.store.Close() }
