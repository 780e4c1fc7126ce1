package cellcycle_test

import (
	"errors"
	"math"
	"testing"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/cellcycle/cellcycletest"
	"lineagecore/pkg/lineage"
	"lineagecore/pkg/rng"
)

func TestHePhaseThreeStochastic(t *testing.T) {
	cases := []struct {
		name string
		u    float64
		want lineage.MitoticMode
	}{
		{"zero draw", 0, lineage.ModePP},
		{"draw at PP", 0.2, lineage.ModePP},
		{"draw above PP", math.Nextafter(0.2, 1), lineage.ModeDD},
		{"high draw", 0.99, lineage.ModeDD},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &cellcycletest.Script{Uniforms: []float64{tc.u}, Gammas: []float64{1.5}, Normals: []float64{0.5}}
			m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 20})
			cell := cellcycletest.NewCell(1)
			m.Initialise(cell)
			src.Gammas = []float64{1.5}

			daughter, dCell := cellcycletest.Divide(m, cell, 2)
			if m.Mode() != tc.want || daughter.Mode() != tc.want {
				t.Fatalf("mode = %s, want %s", m.Mode(), tc.want)
			}
			switch tc.want {
			case lineage.ModeDD:
				assertTerminal(t, m, cell)
				assertTerminal(t, daughter, dCell)
				if got := dCell.Fates(lineage.FatePostMitotic); len(got) != 1 {
					t.Fatalf("daughter fates = %v", got)
				}
			case lineage.ModePP:
				assertProliferative(t, m, cell)
				assertProliferative(t, daughter, dCell)
				if m.CycleDuration() != 5.5 {
					t.Fatalf("parent duration %v, want 5.5", m.CycleDuration())
				}
				if daughter.CycleDuration() != 6 {
					t.Fatalf("sister-shifted duration %v, want 6", daughter.CycleDuration())
				}
			}
		})
	}
}

func TestHePhaseBoundaryIsRightOpen(t *testing.T) {
	// At TiL == 8 the cell is still in phase 1 and always proliferates.
	src := &cellcycletest.Script{Uniforms: []float64{0.99}, Gammas: []float64{1}, Normals: []float64{0}}
	m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 8})
	cellcycletest.Divide(m, cellcycletest.NewCell(1), 2)
	if m.Mode() != lineage.ModePP {
		t.Fatalf("mode at boundary = %s, want PP", m.Mode())
	}

	src = &cellcycletest.Script{Uniforms: []float64{0.5}, Gammas: []float64{1}}
	p := cellcycle.DefaultHeParams()
	p.LineageTimeOffset = 0.0001
	m = newModel(t, p, src, &cellcycletest.Clock{T: 8})
	cellcycletest.Divide(m, cellcycletest.NewCell(1), 2)
	if m.Mode() != lineage.ModePD {
		t.Fatalf("mode just past boundary = %s, want PD", m.Mode())
	}
}

func TestHeAsymmetricDivision(t *testing.T) {
	src := &cellcycletest.Script{Uniforms: []float64{0.5}, Gammas: []float64{2}}
	m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 10})
	cell := cellcycletest.NewCell(1)
	daughter, dCell := cellcycletest.Divide(m, cell, 2)

	assertProliferative(t, m, cell)
	if m.CycleDuration() != 6 {
		t.Fatalf("parent duration %v, want 6", m.CycleDuration())
	}
	assertTerminal(t, daughter, dCell)
	if !dCell.HasProperty(lineage.FatePostMitotic.Property()) {
		t.Fatalf("PD daughter lacks fate marker")
	}
	if cell.HasProperty(lineage.FatePostMitotic.Property()) {
		t.Fatalf("proliferative sibling received a fate")
	}
	if src.Remaining() != 0 {
		t.Fatalf("unexpected unused draws: %d", src.Remaining())
	}
}

func TestHeSisterShiftRespectsRefractoryShift(t *testing.T) {
	src := &cellcycletest.Script{Uniforms: []float64{0}, Gammas: []float64{0.5}, Normals: []float64{-3}}
	m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{})
	daughter, _ := cellcycletest.Divide(m, cellcycletest.NewCell(1), 2)
	if daughter.CycleDuration() != 4 {
		t.Fatalf("daughter duration %v, want floor 4", daughter.CycleDuration())
	}
	if m.CycleDuration() != 4.5 {
		t.Fatalf("parent duration %v, want 4.5", m.CycleDuration())
	}
}

func TestHeMorphantEscapeInStochasticMode(t *testing.T) {
	cases := []struct {
		escape float64
		want   lineage.MitoticMode
	}{
		{0.8, lineage.ModePP},
		{math.Nextafter(0.8, 1), lineage.ModePD},
	}
	for _, tc := range cases {
		src := &cellcycletest.Script{Uniforms: []float64{0.5, tc.escape}, Gammas: []float64{1}, Normals: []float64{0}}
		m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 10})
		cellcycletest.Divide(m, cellcycletest.NewCell(1, lineage.PropertyMorphant), 2)
		if m.Mode() != tc.want {
			t.Fatalf("escape draw %v: mode %s, want %s", tc.escape, m.Mode(), tc.want)
		}
	}
}

func TestHeDeterministicSkipsModeDraw(t *testing.T) {
	cases := []struct {
		now  float64
		want lineage.MitoticMode
	}{
		{2, lineage.ModePP},
		{10, lineage.ModePD},
		{20, lineage.ModeDD},
	}
	for _, tc := range cases {
		// No uniforms are scripted: any mode draw would panic.
		src := &cellcycletest.Script{Gammas: []float64{1}, Normals: []float64{0, 0, 0}}
		m := newModel(t, cellcycle.DefaultHeDeterministicParams(), src, &cellcycletest.Clock{T: tc.now})
		cellcycletest.Divide(m, cellcycletest.NewCell(1), 2)
		if m.Mode() != tc.want {
			t.Fatalf("t=%v: mode %s, want %s", tc.now, m.Mode(), tc.want)
		}
		if n := countUniforms(src.Calls); n != 0 {
			t.Fatalf("t=%v: %d uniform draws taken", tc.now, n)
		}
	}
}

func TestHeDeterministicMorphantEscapeRate(t *testing.T) {
	src := rng.New(42)
	clock := &cellcycletest.Clock{T: 10}
	const trials = 20000
	pp := 0
	for i := 0; i < trials; i++ {
		m := newModel(t, cellcycle.DefaultHeDeterministicParams(), src, clock)
		m.ResetForDivision(cellcycletest.NewCell(uint64(i), lineage.PropertyMorphant))
		switch m.Mode() {
		case lineage.ModePP:
			pp++
		case lineage.ModePD:
		default:
			t.Fatalf("unexpected mode %s in phase 2", m.Mode())
		}
	}
	if frac := float64(pp) / trials; math.Abs(frac-0.8) > 0.015 {
		t.Fatalf("PP fraction %v, want about 0.8", frac)
	}
}

func TestHeDeterministicBoundaryDrift(t *testing.T) {
	// parent shift, daughter sister shift, daughter boundary shift
	src := &cellcycletest.Script{Gammas: []float64{1}, Normals: []float64{0.5, 0.1, -0.3}}
	m := newModel(t, cellcycle.DefaultHeDeterministicParams(), src, &cellcycletest.Clock{T: 1})
	daughter, _ := cellcycletest.Divide(m, cellcycletest.NewCell(1), 2)

	parent := m.Params().(cellcycle.HeParams)
	if parent.Phase2Boundary != 8.5 || parent.Phase3Boundary != 15.5 {
		t.Fatalf("parent boundaries %v/%v, want 8.5/15.5", parent.Phase2Boundary, parent.Phase3Boundary)
	}
	child := daughter.Params().(cellcycle.HeParams)
	if math.Abs(child.Phase2Boundary-7.7) > 1e-12 || math.Abs(child.Phase3Boundary-14.7) > 1e-12 {
		t.Fatalf("daughter boundaries %v/%v, want 7.7/14.7", child.Phase2Boundary, child.Phase3Boundary)
	}
	if src.Remaining() != 0 {
		t.Fatalf("unused draws remain")
	}
}

func TestHeInitialiseOffsets(t *testing.T) {
	t.Run("zero offset divides immediately", func(t *testing.T) {
		src := &cellcycletest.Script{Gammas: []float64{2}}
		m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{})
		cell := cellcycletest.NewCell(1)
		m.Initialise(cell)
		if cell.Type != lineage.TypeTransit {
			t.Fatalf("founder type %s", cell.Type)
		}
		if !m.ReadyToDivide(0) || m.CycleDuration() != 6 {
			t.Fatalf("ready=%v duration=%v", m.ReadyToDivide(0), m.CycleDuration())
		}
	})
	t.Run("negative offset defers", func(t *testing.T) {
		p := cellcycle.DefaultHeParams()
		p.LineageTimeOffset = -12
		src := &cellcycletest.Script{Gammas: []float64{2}}
		m := newModel(t, p, src, &cellcycletest.Clock{})
		m.Initialise(cellcycletest.NewCell(1))
		if m.ReadyToDivide(5.9) {
			t.Fatalf("ready before first duration")
		}
		if !m.ReadyToDivide(6) {
			t.Fatalf("not ready after first duration")
		}
	})
	t.Run("positive offset fast-forwards", func(t *testing.T) {
		p := cellcycle.DefaultHeParams()
		p.LineageTimeOffset = 10
		src := &cellcycletest.Script{Gammas: []float64{3, 4}}
		m := newModel(t, p, src, &cellcycletest.Clock{})
		m.Initialise(cellcycletest.NewCell(1))
		if m.CycleDuration() != 3 {
			t.Fatalf("duration %v, want 3", m.CycleDuration())
		}
		if m.ReadyToDivide(2.9) || !m.ReadyToDivide(3) {
			t.Fatalf("readiness does not follow the shortened duration")
		}
	})
}

func TestHeTimeDependentDuration(t *testing.T) {
	src := &cellcycletest.Script{Gammas: []float64{1, 1, 1}}
	clock := &cellcycletest.Clock{}
	m := newModel(t, cellcycle.DefaultHeParams(), src, clock)
	if err := m.SetTimeDependentCycleDuration(10, -0.05, 0.1); err != nil {
		t.Fatalf("set drift: %v", err)
	}
	for _, now := range []float64{5, 10, 20} {
		clock.T = now
		m.SetCycleDuration()
	}
	want := []string{"gamma(2,0.75)", "gamma(2,0.5)", "gamma(2,1.5)"}
	for i, w := range want {
		if src.Calls[i] != w {
			t.Fatalf("draw %d = %s, want %s", i, src.Calls[i], w)
		}
	}

	var verr *lineage.ValidationError
	if err := m.SetTimeDependentCycleDuration(10, 0.5, 0.1); !errors.As(err, &verr) || !verr.Has(lineage.RuleDriftSlopes) {
		t.Fatalf("expected drift_slopes violation, got %v", err)
	}
}

func TestHeSettersRejectOtherVariants(t *testing.T) {
	m := newModel(t, cellcycle.DefaultGomesParams(), &cellcycletest.Script{}, &cellcycletest.Clock{})
	if err := m.SetTimeDependentCycleDuration(1, -1, 1); !errors.Is(err, cellcycle.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := m.EnableDeterministicMode(1); !errors.Is(err, cellcycle.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestHeEnableDeterministicMode(t *testing.T) {
	src := &cellcycletest.Script{Gammas: []float64{1}, Normals: []float64{0}}
	m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 20})
	if err := m.EnableDeterministicMode(-1); err == nil {
		t.Fatalf("expected width violation")
	}
	if err := m.EnableDeterministicMode(0.5); err != nil {
		t.Fatalf("enable deterministic: %v", err)
	}
	m.ResetForDivision(cellcycletest.NewCell(1))
	if m.Mode() != lineage.ModeDD {
		t.Fatalf("deterministic phase 3 mode %s, want DD", m.Mode())
	}
}

func TestHeKillSpecified(t *testing.T) {
	src := &cellcycletest.Script{Uniforms: []float64{0.5}, Gammas: []float64{1}}
	m := newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 10})
	m.EnableKillSpecified()
	cell := cellcycletest.NewCell(1)
	_, dCell := cellcycletest.Divide(m, cell, 2)
	if cell.Dead {
		t.Fatalf("proliferative sibling killed")
	}
	if !dCell.Dead {
		t.Fatalf("PD daughter not killed")
	}

	src = &cellcycletest.Script{Uniforms: []float64{0.9}, Gammas: []float64{1}}
	m = newModel(t, cellcycle.DefaultHeParams(), src, &cellcycletest.Clock{T: 20})
	m.EnableKillSpecified()
	cell = cellcycletest.NewCell(1)
	_, dCell = cellcycletest.Divide(m, cell, 2)
	if !cell.Dead || !dCell.Dead {
		t.Fatalf("DD cells not killed: parent=%v daughter=%v", cell.Dead, dCell.Dead)
	}
}
