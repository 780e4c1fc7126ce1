package cellcycle_test

import (
	"math"
	"testing"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/cellcycle/cellcycletest"
	"lineagecore/pkg/lineage"
)

var gomesFates = []lineage.Fate{lineage.FateMG, lineage.FateAC, lineage.FateBC, lineage.FateRPh}

func TestGomesSymmetricTerminalDrawsFateTwice(t *testing.T) {
	// mode draw, parent fate draw, daughter fate draw
	src := &cellcycletest.Script{Uniforms: []float64{0.9, 0.01, 0.99}, Normals: []float64{0}}
	m := newModel(t, cellcycle.DefaultGomesParams(), src, &cellcycletest.Clock{T: 30})
	cell := cellcycletest.NewCell(1)
	daughter, dCell := cellcycletest.Divide(m, cell, 2)

	if m.Mode() != lineage.ModeDD {
		t.Fatalf("mode %s, want DD", m.Mode())
	}
	assertTerminal(t, m, cell)
	assertTerminal(t, daughter, dCell)
	if got := cell.Fates(gomesFates...); len(got) != 1 || got[0] != lineage.FateMG {
		t.Fatalf("parent fates %v, want [mg]", got)
	}
	if got := dCell.Fates(gomesFates...); len(got) != 1 || got[0] != lineage.FateRPh {
		t.Fatalf("daughter fates %v, want [rph]", got)
	}
	if n := countUniforms(src.Calls); n != 3 {
		t.Fatalf("took %d uniform draws, want 3", n)
	}
}

func TestGomesDaughterFateReplacesOnlyFateMarkers(t *testing.T) {
	src := &cellcycletest.Script{Uniforms: []float64{0.9, 0.01, 0.2}, Normals: []float64{0}}
	m := newModel(t, cellcycle.DefaultGomesParams(), src, &cellcycletest.Clock{})
	cell := cellcycletest.NewCell(1, lineage.PropertyMorphant)
	_, dCell := cellcycletest.Divide(m, cell, 2)
	if !dCell.HasProperty(lineage.PropertyMorphant) {
		t.Fatalf("unrelated marker stripped from daughter")
	}
	if got := dCell.Fates(gomesFates...); len(got) != 1 || got[0] != lineage.FateBC {
		t.Fatalf("daughter fates %v, want [bc]", got)
	}
}

func TestGomesAsymmetricDivision(t *testing.T) {
	src := &cellcycletest.Script{Uniforms: []float64{0.1, 0.05}, Normals: []float64{0}}
	m := newModel(t, cellcycle.DefaultGomesParams(), src, &cellcycletest.Clock{})
	cell := cellcycletest.NewCell(1)
	daughter, dCell := cellcycletest.Divide(m, cell, 2)

	assertProliferative(t, m, cell)
	if want := math.Exp(cellcycle.DefaultGomesParams().NormalMu); m.CycleDuration() != want {
		t.Fatalf("parent duration %v, want %v", m.CycleDuration(), want)
	}
	if got := cell.Fates(gomesFates...); len(got) != 0 {
		t.Fatalf("parent received fate %v", got)
	}
	assertTerminal(t, daughter, dCell)
	if got := dCell.Fates(gomesFates...); len(got) != 1 || got[0] != lineage.FateAC {
		t.Fatalf("daughter fates %v, want [ac]", got)
	}
}

func TestGomesProliferativeDaughterDrawsOwnDuration(t *testing.T) {
	src := &cellcycletest.Script{Uniforms: []float64{0.05}, Normals: []float64{0, 0.1}}
	m := newModel(t, cellcycle.DefaultGomesParams(), src, &cellcycletest.Clock{})
	daughter, _ := cellcycletest.Divide(m, cellcycletest.NewCell(1), 2)
	p := cellcycle.DefaultGomesParams()
	if m.CycleDuration() != math.Exp(p.NormalMu) {
		t.Fatalf("parent duration %v", m.CycleDuration())
	}
	if daughter.CycleDuration() != math.Exp(p.NormalMu+0.1) {
		t.Fatalf("daughter duration %v, want fresh draw", daughter.CycleDuration())
	}
}

func TestGomesFoundersWaitOneCycle(t *testing.T) {
	src := &cellcycletest.Script{Normals: []float64{0}}
	m := newModel(t, cellcycle.DefaultGomesParams(), src, &cellcycletest.Clock{})
	m.Initialise(cellcycletest.NewCell(1))
	d := m.CycleDuration()
	if m.ReadyToDivide(d - 1) {
		t.Fatalf("ready before one cycle")
	}
	if !m.ReadyToDivide(d) {
		t.Fatalf("not ready after one cycle")
	}
}
