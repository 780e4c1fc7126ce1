package cellcycle_test

import (
	"errors"
	"testing"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/cellcycle/cellcycletest"
	"lineagecore/pkg/lineage"
)

func newModel(t *testing.T, p cellcycle.Params, src lineage.RandomSource, clock *cellcycletest.Clock, opts ...cellcycle.Option) *cellcycle.Model {
	t.Helper()
	base := []cellcycle.Option{cellcycle.WithRandom(src), cellcycle.WithClock(clock)}
	m, err := cellcycle.New(p, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new %s model: %v", p.Kind(), err)
	}
	return m
}

func assertTerminal(t *testing.T, m *cellcycle.Model, c *cellcycletest.Cell) {
	t.Helper()
	if m.CycleDuration() != lineage.Infinite {
		t.Fatalf("cell %d: duration %v, want infinite", c.ID(), m.CycleDuration())
	}
	if c.Type != lineage.TypeDifferentiated {
		t.Fatalf("cell %d: type %s, want differentiated", c.ID(), c.Type)
	}
}

func assertProliferative(t *testing.T, m *cellcycle.Model, c *cellcycletest.Cell) {
	t.Helper()
	if m.Terminal() {
		t.Fatalf("cell %d left the cycle", c.ID())
	}
	if c.Type == lineage.TypeDifferentiated {
		t.Fatalf("cell %d differentiated", c.ID())
	}
}

func countUniforms(calls []string) int {
	n := 0
	for _, c := range calls {
		if c == "uniform" {
			n++
		}
	}
	return n
}

// recordingWriter is an in-memory lineage.ColumnWriter.
type recordingWriter struct {
	names   []string
	defined bool
	current map[string]float64
	rows    []map[string]float64
}

func (w *recordingWriter) DefineUnlimitedDimension(name, _ string) (int, error) {
	if w.defined {
		return 0, errors.New("define mode closed")
	}
	w.names = append(w.names, name)
	return len(w.names) - 1, nil
}

func (w *recordingWriter) DefineVariable(name, _ string) (int, error) {
	if w.defined {
		return 0, errors.New("define mode closed")
	}
	w.names = append(w.names, name)
	return len(w.names) - 1, nil
}

func (w *recordingWriter) EndDefineMode() error {
	w.defined = true
	return nil
}

func (w *recordingWriter) PutVariable(id int, v float64) error {
	if w.current == nil {
		w.current = map[string]float64{}
	}
	w.current[w.names[id]] = v
	return nil
}

func (w *recordingWriter) AdvanceAlongUnlimitedDimension() error {
	w.rows = append(w.rows, w.current)
	w.current = nil
	return nil
}
