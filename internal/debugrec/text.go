package debugrec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Text writes a whitespace-separated .dat table: a "#" header line naming
// each column with its units, then one line per committed row. Unset cells
// are written as "nan".
type Text struct {
	mu     sync.Mutex
	l      layout
	w      *bufio.Writer
	closer io.Closer
}

// NewText wraps w. Closing the writer flushes but does not close w.
func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

// CreateText creates (truncating) the .dat file at path.
func CreateText(path string) (*Text, error) {
	if path == "" {
		return nil, errors.New("debugrec: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	f, err := os.Create(path) // #nosec G304 -- path comes from run configuration
	if err != nil {
		return nil, fmt.Errorf("create debug file: %w", err)
	}
	t := NewText(f)
	t.closer = f
	return t, nil
}

// DefineUnlimitedDimension implements lineage.ColumnWriter.
func (t *Text) DefineUnlimitedDimension(name, units string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.l.define(name, units)
}

// DefineVariable implements lineage.ColumnWriter.
func (t *Text) DefineVariable(name, units string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.l.define(name, units)
}

// EndDefineMode writes the header line.
func (t *Text) EndDefineMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.l.end(); err != nil {
		return err
	}
	names := make([]string, len(t.l.columns))
	for i, c := range t.l.columns {
		names[i] = c.Name
		if c.Units != "" {
			names[i] += "(" + c.Units + ")"
		}
	}
	if _, err := fmt.Fprintf(t.w, "# %s\n", strings.Join(names, "\t")); err != nil {
		return fmt.Errorf("write debug header: %w", err)
	}
	return nil
}

// PutVariable implements lineage.ColumnWriter.
func (t *Text) PutVariable(id int, value float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.l.put(id, value)
}

// AdvanceAlongUnlimitedDimension writes the staged row.
func (t *Text) AdvanceAlongUnlimitedDimension() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, err := t.l.take()
	if err != nil {
		return err
	}
	cells := make([]string, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			cells[i] = "nan"
			continue
		}
		cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if _, err := fmt.Fprintln(t.w, strings.Join(cells, "\t")); err != nil {
		return fmt.Errorf("write debug row: %w", err)
	}
	return nil
}

// Close flushes and closes the file when the writer owns one.
func (t *Text) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.w.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
		t.closer = nil
	}
	return err
}
