package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lineagecore/pkg/lineage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "events.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTripsEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	want := []lineage.ModeEvent{
		{Time: 24, Seed: 1, CellID: 4, Mode: lineage.ModePP},
		{Time: 31.25, Seed: 1, CellID: 5, Mode: lineage.ModeDD},
	}
	for _, ev := range want {
		if err := s.RecordMode(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := s.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStoreSequence(t *testing.T) {
	s := newTestStore(t)
	for _, m := range []lineage.MitoticMode{lineage.ModePP, lineage.ModePD, lineage.ModeDD} {
		if err := s.RecordSequence(m); err != nil {
			t.Fatalf("record sequence: %v", err)
		}
	}
	seq, err := s.Sequence(context.Background())
	if err != nil || seq != "012" {
		t.Fatalf("sequence %q, %v", seq, err)
	}
}

func TestStoreReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_ = s.RecordMode(lineage.ModeEvent{Time: 1, CellID: 2})
	_ = s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	events, _ := s.Events(context.Background())
	if len(events) != 1 {
		t.Fatalf("reopened store has %d events", len(events))
	}
}

func TestDebugTable(t *testing.T) {
	s := newTestStore(t)
	table, err := NewDebugTable(s.DB(), "he_debug")
	if err != nil {
		t.Fatalf("new debug table: %v", err)
	}
	timeID, _ := table.DefineUnlimitedDimension("Time", "h")
	cellID, _ := table.DefineVariable("CellID", "No")
	rvID, _ := table.DefineVariable("MitoticModeRV", "Percentile")
	if _, err := table.DefineVariable("cellid", "No"); err == nil {
		t.Fatalf("expected duplicate variable error")
	}
	if err := table.PutVariable(cellID, 1); !errors.Is(err, ErrDefineMode) {
		t.Fatalf("expected ErrDefineMode before EndDefineMode, got %v", err)
	}
	if err := table.EndDefineMode(); err != nil {
		t.Fatalf("end define: %v", err)
	}
	if _, err := table.DefineVariable("Late", "h"); !errors.Is(err, ErrDefineMode) {
		t.Fatalf("expected ErrDefineMode after EndDefineMode, got %v", err)
	}

	_ = table.PutVariable(timeID, 10)
	_ = table.PutVariable(cellID, 3)
	_ = table.PutVariable(rvID, 0.42)
	if err := table.AdvanceAlongUnlimitedDimension(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	_ = table.PutVariable(timeID, 11)
	_ = table.PutVariable(cellID, 4)
	if err := table.AdvanceAlongUnlimitedDimension(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := table.PutVariable(99, 1); err == nil {
		t.Fatalf("expected out of range error")
	}

	rows, err := table.Rows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0]["MitoticModeRV"] != 0.42 || rows[0]["CellID"] != 3 {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if _, ok := rows[1]["MitoticModeRV"]; ok {
		t.Fatalf("unset variable should read back as missing: %v", rows[1])
	}

	var units string
	if err := s.DB().QueryRow(`SELECT units FROM debug_units WHERE table_name = ? AND variable = ?`, "he_debug", "MitoticModeRV").Scan(&units); err != nil || units != "Percentile" {
		t.Fatalf("units %q, %v", units, err)
	}
}

func TestDebugTableRejectsBadNames(t *testing.T) {
	s := newTestStore(t)
	if _, err := NewDebugTable(s.DB(), "drop table;"); err == nil {
		t.Fatalf("expected invalid table name error")
	}
	table, _ := NewDebugTable(s.DB(), "ok")
	if _, err := table.DefineVariable(`a"b`, ""); err == nil {
		t.Fatalf("expected invalid variable name error")
	}
}
