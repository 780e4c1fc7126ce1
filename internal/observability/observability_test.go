package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"expvar"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/cellcycle/cellcycletest"
	"lineagecore/pkg/lineage"
	"lineagecore/pkg/rng"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}

func TestNewLoggerLabelsTrace(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("trace", &buf)
	log.Log(context.Background(), LevelTrace, "draw", "value", 0.5)
	log.Debug("divided")
	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Fatalf("expected TRACE label, got %q", out)
	}
	if !strings.Contains(out, "msg=divided") {
		t.Fatalf("expected debug record, got %q", out)
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", &buf)
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestExpvarMetricsSnapshot(t *testing.T) {
	m := NewExpvarMetrics("")
	m.ObserveDivision(lineage.KindHe, 2, lineage.ModePD)
	m.ObserveDivision(lineage.KindHe, 2, lineage.ModePD)
	m.ObserveFate(lineage.KindGomes, lineage.FateRPh)
	m.ObserveCycleDuration(lineage.KindHe, 6)
	m.ObserveCycleDuration(lineage.KindHe, 10)
	m.ObserveCycleDuration(lineage.KindHe, lineage.Infinite)

	snap := m.Snapshot()
	if snap.Divisions["he/phase2/PD"] != 2 {
		t.Fatalf("expected 2 phase-2 PD divisions, got %v", snap.Divisions)
	}
	if snap.Fates["gomes/"+string(lineage.FateRPh)] != 1 {
		t.Fatalf("unexpected fates %v", snap.Fates)
	}
	d := snap.Durations["he"]
	if d.Count != 2 || d.Mean() != 8 || d.Min != 6 || d.Max != 10 {
		t.Fatalf("unexpected duration summary %+v", d)
	}

	v := expvar.Get(m.Name())
	if v == nil {
		t.Fatalf("expected %s to be published", m.Name())
	}
	var decoded ExpvarSnapshot
	if err := json.Unmarshal([]byte(v.String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Divisions["he/phase2/PD"] != 2 {
		t.Fatalf("expected published snapshot to match, got %v", decoded.Divisions)
	}
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m.ObserveDivision(lineage.KindBoije, 3, lineage.ModeDD)
	m.ObserveFate(lineage.KindBoije, lineage.FatePRBC)
	m.ObserveFate(lineage.KindBoije, lineage.FatePRBC)
	m.ObserveCycleDuration(lineage.KindBoije, 1)
	m.ObserveCycleDuration(lineage.KindBoije, lineage.Infinite)

	if got := testutil.ToFloat64(m.Divisions().WithLabelValues("boije", "3", "DD")); got != 1 {
		t.Fatalf("expected 1 division, got %v", got)
	}
	if got := testutil.ToFloat64(m.Fates().WithLabelValues("boije", string(lineage.FatePRBC))); got != 2 {
		t.Fatalf("expected 2 fates, got %v", got)
	}
	if n := testutil.CollectAndCount(m.durations); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
	if _, err := NewPrometheusMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestModelFeedsFanout(t *testing.T) {
	prom, err := NewPrometheusMetrics(nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	exp := NewExpvarMetrics("")
	p := cellcycle.DefaultHeParams()
	p.Deterministic = true
	p.Modes = nil
	m, err := cellcycle.NewHe(p,
		cellcycle.WithRandom(rng.New(5)),
		cellcycle.WithClock(&cellcycletest.Clock{T: 0}),
		cellcycle.WithMetrics(Fanout{prom, exp}),
		cellcycle.WithLogger(Noop{}))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	cell := cellcycletest.NewCell(1)
	m.Initialise(cell)
	cellcycletest.Divide(m, cell, 2)

	if got := testutil.ToFloat64(prom.Divisions().WithLabelValues("he", "1", "PP")); got != 1 {
		t.Fatalf("expected one phase-1 PP division, got %v", got)
	}
	if got := exp.Snapshot().Divisions["he/phase1/PP"]; got != 1 {
		t.Fatalf("expected expvar to see the division, got %d", got)
	}
}
