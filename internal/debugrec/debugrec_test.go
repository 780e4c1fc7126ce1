package debugrec

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/cellcycle/cellcycletest"
	"lineagecore/pkg/lineage"
	"lineagecore/pkg/rng"
)

func defineTwo(t *testing.T, w lineage.ColumnWriter) (int, int) {
	t.Helper()
	tid, err := w.DefineUnlimitedDimension("Time", "h")
	if err != nil {
		t.Fatalf("define time: %v", err)
	}
	vid, err := w.DefineVariable("CycleDuration", "h")
	if err != nil {
		t.Fatalf("define variable: %v", err)
	}
	if err := w.EndDefineMode(); err != nil {
		t.Fatalf("end define: %v", err)
	}
	return tid, vid
}

func TestMemoryRows(t *testing.T) {
	m := NewMemory()
	tid, vid := defineTwo(t, m)
	_ = m.PutVariable(tid, 1)
	_ = m.PutVariable(vid, 9.5)
	if err := m.AdvanceAlongUnlimitedDimension(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	_ = m.PutVariable(tid, 2)
	if err := m.AdvanceAlongUnlimitedDimension(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	rows := m.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["CycleDuration"] != 9.5 || rows[0]["Time"] != 1 {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if _, ok := rows[1]["CycleDuration"]; ok {
		t.Fatalf("expected unset cell to be omitted, got %v", rows[1])
	}
}

func TestDefineModeErrors(t *testing.T) {
	m := NewMemory()
	if err := m.PutVariable(0, 1); !errors.Is(err, ErrDefineMode) {
		t.Fatalf("expected ErrDefineMode before end, got %v", err)
	}
	if err := m.AdvanceAlongUnlimitedDimension(); !errors.Is(err, ErrDefineMode) {
		t.Fatalf("expected ErrDefineMode on advance, got %v", err)
	}
	defineTwo(t, m)
	if _, err := m.DefineVariable("Late", ""); !errors.Is(err, ErrDefineMode) {
		t.Fatalf("expected ErrDefineMode after end, got %v", err)
	}
	if err := m.PutVariable(7, 1); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
	if _, err := NewMemory().DefineVariable("", ""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	dup := NewMemory()
	_, _ = dup.DefineVariable("A", "")
	if _, err := dup.DefineVariable("A", ""); err == nil {
		t.Fatalf("expected duplicate column error")
	}
}

func TestTextTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewText(&buf)
	tid, vid := defineTwo(t, w)
	_ = w.PutVariable(tid, 3)
	_ = w.PutVariable(vid, 11.25)
	_ = w.AdvanceAlongUnlimitedDimension()
	_ = w.PutVariable(tid, 4)
	_ = w.AdvanceAlongUnlimitedDimension()
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := "# Time(h)\tCycleDuration(h)\n3\t11.25\n4\tnan\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestOpenFormats(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []Config{
		{Format: FormatText, Path: filepath.Join(dir, "debug.dat")},
		{Format: FormatMemory},
		{Format: FormatSQLite, Path: filepath.Join(dir, "debug.db"), Table: "he_debug"},
	} {
		w, err := Open(cfg)
		if err != nil {
			t.Fatalf("open %s: %v", cfg.Format, err)
		}
		tid, vid := defineTwo(t, w)
		_ = w.PutVariable(tid, 1)
		_ = w.PutVariable(vid, 2)
		if err := w.AdvanceAlongUnlimitedDimension(); err != nil {
			t.Fatalf("%s advance: %v", cfg.Format, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("%s close: %v", cfg.Format, err)
		}
	}
	if _, err := Open(Config{Format: "netcdf"}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if _, err := Open(Config{Format: FormatText}); err == nil {
		t.Fatalf("expected error for empty text path")
	}
}

func TestModelWritesOneRowPerDivision(t *testing.T) {
	w := NewMemory()
	m, err := cellcycle.NewGomes(cellcycle.DefaultGomesParams(),
		cellcycle.WithRandom(rng.New(11)),
		cellcycle.WithClock(&cellcycletest.Clock{T: 5}))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	if _, err := m.EnableDebugOutput(w); err != nil {
		t.Fatalf("enable debug: %v", err)
	}
	cell := cellcycletest.NewCell(1)
	m.Initialise(cell)
	cellcycletest.Divide(m, cell, 2)

	cols := w.Columns()
	if cols[0].Name != "Time" || cols[0].Units != "h" {
		t.Fatalf("expected Time(h) first, got %+v", cols[0])
	}
	rows := w.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["Time"] != 5 || rows[0]["CellID"] != 1 {
		t.Fatalf("unexpected row %v", rows[0])
	}
	mode := rows[0]["MitoticMode"]
	if mode != math.Trunc(mode) || mode < 0 || mode > 2 {
		t.Fatalf("expected a mode code, got %v", mode)
	}
}

func TestTextHeaderMatchesBoijeSchema(t *testing.T) {
	var buf bytes.Buffer
	w := NewText(&buf)
	m, err := cellcycle.NewBoije(cellcycle.DefaultBoijeParams(), cellcycle.WithRandom(rng.New(1)))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	if _, err := m.EnableDebugOutput(w); err != nil {
		t.Fatalf("enable debug: %v", err)
	}
	_ = w.Close()
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if !strings.HasPrefix(header, "# Time(generation)\t") {
		t.Fatalf("unexpected header %q", header)
	}
	if got := strings.Count(header, "\t"); got != len(m.DebugSchema()) {
		t.Fatalf("expected %d variables in header, got %d", len(m.DebugSchema()), got)
	}
}
