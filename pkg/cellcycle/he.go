package cellcycle

import (
	"math"

	"lineagecore/pkg/lineage"
)

var heSchema = []Column{
	{"CellID", "No"},
	{"TiL", "h"},
	{"CycleDuration", "h"},
	{"Phase2Boundary", "h"},
	{"Phase3Boundary", "h"},
	{"Phase", "No"},
	{"MitoticModeRV", "Percentile"},
	{"MitoticMode", "Mode"},
	{"Label", "binary"},
}

type he struct {
	p HeParams
	// pending holds the boundaries in force before the parent's deterministic
	// shift; the clone restores them before drawing its own shift.
	pending    [2]float64
	hasPending bool
}

func newHe(p HeParams) *he {
	p.Modes = p.Modes.Clone()
	if p.Drift != nil {
		d := *p.Drift
		p.Drift = &d
	}
	return &he{p: p}
}

func (h *he) kind() lineage.Kind { return lineage.KindHe }

func (h *he) params() Params { return newHe(h.p).p }

func (h *he) schema() []Column { return heSchema }

func (h *he) clone() variant {
	c := newHe(h.p)
	c.pending, c.hasPending = h.pending, h.hasPending
	return c
}

func (h *he) gamma(now float64) ShiftedGamma {
	if h.p.Drift == nil {
		return h.p.Gamma
	}
	return h.p.Gamma.WithScale(h.p.Drift.Scale(h.p.Gamma.Scale, now))
}

func (h *he) sampleDuration(m *Model, now float64) float64 {
	return h.gamma(now).Sample(m.deps.src)
}

func (h *he) initialise(m *Model, _ lineage.Cell) {
	offset := h.p.LineageTimeOffset
	switch {
	case offset == 0:
		m.SetCycleDuration()
	case offset < 0:
		m.ready = false
		m.SetCycleDuration()
	default:
		m.ready = false
		m.duration = FastForward(offset, func() float64 { return h.p.Gamma.Sample(m.deps.src) })
	}
}

func (h *he) decide(m *Model, cell lineage.Cell, now float64) (lineage.MitoticMode, int, []float64) {
	src := m.deps.src
	til := now + h.p.LineageTimeOffset
	phase := SelectPhase(til, h.p.Boundaries())

	rv := math.NaN()
	var mode lineage.MitoticMode
	if h.p.Deterministic {
		switch phase {
		case 1:
			mode = lineage.ModePP
		case 2:
			mode = lineage.ModePD
		default:
			mode = lineage.ModeDD
		}
	} else {
		rv = src.Uniform()
		mode = h.p.Modes.Decide(phase, rv)
	}
	if mode == lineage.ModePD && cell.HasProperty(lineage.PropertyMorphant) && src.Uniform() <= MorphantEscapeProbability {
		mode = lineage.ModePP
	}

	row := []float64{
		float64(cell.ID()),
		til,
		m.duration,
		h.p.Phase2Boundary,
		h.p.Phase3Boundary,
		float64(phase),
		rv,
		float64(mode.Code()),
		m.labelValue(cell),
	}
	return mode, phase, row
}

func (h *he) afterReset(m *Model, cell lineage.Cell) {
	if m.mode == lineage.ModeDD {
		m.exit(cell)
		m.assignFate(cell, lineage.FatePostMitotic)
	}
	if h.p.Deterministic {
		h.pending = [2]float64{h.p.Phase2Boundary, h.p.Phase3Boundary}
		h.hasPending = true
		h.shiftBoundaries(m.deps.src)
	}
}

func (h *he) initialiseDaughter(m *Model, cell lineage.Cell) {
	switch m.mode {
	case lineage.ModePD:
		m.exit(cell)
		m.assignFate(cell, lineage.FatePostMitotic)
	case lineage.ModePP:
		shift := m.deps.src.Normal(0, h.p.SisterShiftWidth)
		m.duration = math.Max(h.p.Gamma.Shift, m.duration+shift)
	case lineage.ModeDD:
		m.exit(cell)
		if !cell.HasProperty(lineage.FatePostMitotic.Property()) {
			m.assignFate(cell, lineage.FatePostMitotic)
		}
	}
	if h.p.Deterministic {
		if h.hasPending {
			h.p.Phase2Boundary, h.p.Phase3Boundary = h.pending[0], h.pending[1]
			h.hasPending = false
		}
		h.shiftBoundaries(m.deps.src)
	}
}

func (h *he) shiftBoundaries(src lineage.RandomSource) {
	shift := src.Normal(0, h.p.PhaseShiftWidth)
	h.p.Phase2Boundary += shift
	h.p.Phase3Boundary += shift
}

// SetTimeDependentCycleDuration makes the gamma scale drift with simulation
// time around peak. The current scale becomes the base.
func (m *Model) SetTimeDependentCycleDuration(peak, increasingRateSlope, decreasingRateSlope float64) error {
	h, ok := m.v.(*he)
	if !ok {
		return ErrUnsupported
	}
	d := Drift{PeakTime: peak, IncreasingRateSlope: increasingRateSlope, DecreasingRateSlope: decreasingRateSlope}
	var vs lineage.Violations
	d.validate("drift", &vs)
	if err := vs.Err(); err != nil {
		return err
	}
	h.p.Drift = &d
	return nil
}

// EnableDeterministicMode switches a He model to forced PD after the first
// boundary and forced DD after the second, with each daughter's boundaries
// shifted by Normal(0, phaseShiftWidth).
func (m *Model) EnableDeterministicMode(phaseShiftWidth float64) error {
	h, ok := m.v.(*he)
	if !ok {
		return ErrUnsupported
	}
	if math.IsNaN(phaseShiftWidth) || phaseShiftWidth < 0 {
		var vs lineage.Violations
		vs.Add(lineage.RuleWidths, "phase_shift_width", "must be non-negative, got %g", phaseShiftWidth)
		return vs.Err()
	}
	h.p.Deterministic = true
	h.p.PhaseShiftWidth = phaseShiftWidth
	return nil
}
