// Package debugrec provides the column writers a model's per-division debug
// rows are recorded into.
package debugrec

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrDefineMode is returned when a call is made in the wrong phase: defining
// after EndDefineMode, or writing before it.
var ErrDefineMode = errors.New("debugrec: wrong define mode")

// ErrUnknownVariable is returned for out-of-range variable ids.
var ErrUnknownVariable = errors.New("debugrec: unknown variable id")

// Column describes a declared variable.
type Column struct {
	Name  string
	Units string
}

// layout tracks declared columns and the row being assembled. It is shared by
// every writer in this package.
type layout struct {
	columns []Column
	defined bool
	row     []float64
}

func (l *layout) define(name, units string) (int, error) {
	if l.defined {
		return 0, ErrDefineMode
	}
	if name == "" {
		return 0, fmt.Errorf("debugrec: empty column name")
	}
	for _, c := range l.columns {
		if c.Name == name {
			return 0, fmt.Errorf("debugrec: duplicate column %q", name)
		}
	}
	l.columns = append(l.columns, Column{Name: name, Units: units})
	return len(l.columns) - 1, nil
}

func (l *layout) end() error {
	if l.defined {
		return ErrDefineMode
	}
	l.defined = true
	l.row = blankRow(len(l.columns))
	return nil
}

func (l *layout) put(id int, v float64) error {
	if !l.defined {
		return ErrDefineMode
	}
	if id < 0 || id >= len(l.columns) {
		return fmt.Errorf("%w: %d", ErrUnknownVariable, id)
	}
	l.row[id] = v
	return nil
}

// take returns the staged row and starts a fresh one.
func (l *layout) take() ([]float64, error) {
	if !l.defined {
		return nil, ErrDefineMode
	}
	row := l.row
	l.row = blankRow(len(l.columns))
	return row, nil
}

func blankRow(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = math.NaN()
	}
	return row
}

// Memory keeps committed rows in process memory.
type Memory struct {
	mu   sync.Mutex
	l    layout
	rows [][]float64
}

// NewMemory returns an empty in-memory writer.
func NewMemory() *Memory { return &Memory{} }

// DefineUnlimitedDimension implements lineage.ColumnWriter.
func (m *Memory) DefineUnlimitedDimension(name, units string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l.define(name, units)
}

// DefineVariable implements lineage.ColumnWriter.
func (m *Memory) DefineVariable(name, units string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l.define(name, units)
}

// EndDefineMode implements lineage.ColumnWriter.
func (m *Memory) EndDefineMode() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l.end()
}

// PutVariable implements lineage.ColumnWriter.
func (m *Memory) PutVariable(id int, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.l.put(id, value)
}

// AdvanceAlongUnlimitedDimension implements lineage.ColumnWriter.
func (m *Memory) AdvanceAlongUnlimitedDimension() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, err := m.l.take()
	if err != nil {
		return err
	}
	m.rows = append(m.rows, row)
	return nil
}

// Columns returns the declared columns.
func (m *Memory) Columns() []Column {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Column(nil), m.l.columns...)
}

// Rows returns committed rows keyed by column name. Unset cells are omitted.
func (m *Memory) Rows() []map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]float64, 0, len(m.rows))
	for _, row := range m.rows {
		rec := make(map[string]float64, len(row))
		for i, v := range row {
			if !math.IsNaN(v) {
				rec[m.l.columns[i].Name] = v
			}
		}
		out = append(out, rec)
	}
	return out
}

// Close implements io.Closer.
func (m *Memory) Close() error { return nil }
