package cellcycle

import (
	"math"

	"lineagecore/pkg/lineage"
)

// Params is implemented by the parameter set of each variant.
type Params interface {
	Kind() lineage.Kind
	Validate() error
}

// MorphantEscapeProbability is the chance an Ath5 morphant turns a PD division back into PP.
const MorphantEscapeProbability = 0.8

// HeParams configures the three-phase shifted-gamma model.
type HeParams struct {
	// LineageTimeOffset shifts the cell's clock: positive values fast-forward a
	// lineage already under way, negative values defer its first division.
	LineageTimeOffset float64      `json:"lineage_time_offset" yaml:"lineage_time_offset"`
	Phase2Boundary    float64      `json:"phase2_boundary" yaml:"phase2_boundary"`
	Phase3Boundary    float64      `json:"phase3_boundary" yaml:"phase3_boundary"`
	Modes             ModeTable    `json:"modes" yaml:"modes"`
	Gamma             ShiftedGamma `json:"gamma" yaml:"gamma"`
	SisterShiftWidth  float64      `json:"sister_shift_width" yaml:"sister_shift_width"`
	Deterministic     bool         `json:"deterministic" yaml:"deterministic"`
	PhaseShiftWidth   float64      `json:"phase_shift_width" yaml:"phase_shift_width"`
	Drift             *Drift       `json:"drift,omitempty" yaml:"drift,omitempty"`
	EventStartTime    float64      `json:"event_start_time" yaml:"event_start_time"`
}

// DefaultHeParams returns the He et al. 2012 stochastic fit.
func DefaultHeParams() HeParams {
	return HeParams{
		Phase2Boundary: 8,
		Phase3Boundary: 15,
		Modes: ModeTable{
			{PP: 1, PD: 0},
			{PP: 0.2, PD: 0.4},
			{PP: 0.2, PD: 0},
		},
		Gamma:            ShiftedGamma{Shift: 4, Shape: 2, Scale: 1},
		SisterShiftWidth: 1,
		PhaseShiftWidth:  2,
		EventStartTime:   24,
	}
}

// DefaultHeDeterministicParams returns the deterministic alternative: forced
// PD after the first boundary, forced DD after the second.
func DefaultHeDeterministicParams() HeParams {
	p := DefaultHeParams()
	p.Deterministic = true
	p.PhaseShiftWidth = 1
	return p
}

// Kind implements Params.
func (HeParams) Kind() lineage.Kind { return lineage.KindHe }

// Boundaries returns the phase boundaries in order.
func (p HeParams) Boundaries() []float64 { return []float64{p.Phase2Boundary, p.Phase3Boundary} }

// Validate implements Params.
func (p HeParams) Validate() error {
	var vs lineage.Violations
	if math.IsNaN(p.LineageTimeOffset) || math.IsInf(p.LineageTimeOffset, 0) {
		vs.Add(lineage.RulePhaseBoundaries, "lineage_time_offset", "must be finite")
	}
	validateBoundaries("phase_boundaries", p.Boundaries(), &vs)
	if !p.Deterministic || len(p.Modes) > 0 {
		p.Modes.validate("modes", &vs)
		if len(p.Modes) != 3 {
			vs.Add(lineage.RuleModeProbabilities, "modes", "need 3 phases, got %d", len(p.Modes))
		}
	}
	p.Gamma.validate("gamma", &vs)
	if math.IsNaN(p.SisterShiftWidth) || p.SisterShiftWidth < 0 {
		vs.Add(lineage.RuleWidths, "sister_shift_width", "must be non-negative, got %g", p.SisterShiftWidth)
	}
	if math.IsNaN(p.PhaseShiftWidth) || p.PhaseShiftWidth < 0 {
		vs.Add(lineage.RuleWidths, "phase_shift_width", "must be non-negative, got %g", p.PhaseShiftWidth)
	}
	if p.Drift != nil {
		p.Drift.validate("drift", &vs)
	}
	return vs.Err()
}

// GomesParams configures the single-stage log-normal model.
type GomesParams struct {
	NormalMu       float64 `json:"normal_mu" yaml:"normal_mu"`
	NormalSigma    float64 `json:"normal_sigma" yaml:"normal_sigma"`
	PP             float64 `json:"pp" yaml:"pp"`
	PD             float64 `json:"pd" yaml:"pd"`
	PBC            float64 `json:"p_bc" yaml:"p_bc"`
	PAC            float64 `json:"p_ac" yaml:"p_ac"`
	PMG            float64 `json:"p_mg" yaml:"p_mg"`
	EventStartTime float64 `json:"event_start_time" yaml:"event_start_time"`
}

// DefaultGomesParams returns the Gomes et al. 2011 fit (cycle mean ~56h, sd ~18.9h).
func DefaultGomesParams() GomesParams {
	return GomesParams{
		NormalMu:    3.9716,
		NormalSigma: 0.32839,
		PP:          0.055,
		PD:          0.221,
		PBC:         0.128,
		PAC:         0.106,
		PMG:         0.028,
	}
}

// Kind implements Params.
func (GomesParams) Kind() lineage.Kind { return lineage.KindGomes }

// Modes returns the single-stage mode table.
func (p GomesParams) Modes() ModeTable { return ModeTable{{PP: p.PP, PD: p.PD}} }

// Fates returns the ordered fate distribution; rod photoreceptors take the remainder.
func (p GomesParams) Fates() FateDistribution {
	return FateDistribution{
		{Fate: lineage.FateMG, Probability: p.PMG},
		{Fate: lineage.FateAC, Probability: p.PAC},
		{Fate: lineage.FateBC, Probability: p.PBC},
		{Fate: lineage.FateRPh, Probability: 1 - p.PMG - p.PAC - p.PBC},
	}
}

// Validate implements Params.
func (p GomesParams) Validate() error {
	var vs lineage.Violations
	if math.IsNaN(p.NormalMu) || math.IsInf(p.NormalMu, 0) {
		vs.Add(lineage.RuleLogNormalParameters, "normal_mu", "must be finite")
	}
	if !(p.NormalSigma > 0) || math.IsInf(p.NormalSigma, 0) {
		vs.Add(lineage.RuleLogNormalParameters, "normal_sigma", "must be positive and finite, got %g", p.NormalSigma)
	}
	p.Modes().validate("modes", &vs)
	for _, f := range []struct {
		name string
		v    float64
	}{{"p_bc", p.PBC}, {"p_ac", p.PAC}, {"p_mg", p.PMG}} {
		if math.IsNaN(f.v) || f.v < 0 {
			vs.Add(lineage.RuleFateDistribution, f.name, "must be non-negative, got %g", f.v)
		}
	}
	if p.PBC+p.PAC+p.PMG > 1+lineage.Tolerance {
		vs.Add(lineage.RuleFateDistribution, "fates", "p_bc+p_ac+p_mg = %g exceeds 1", p.PBC+p.PAC+p.PMG)
	}
	return vs.Err()
}

// BoijeParams configures the generation-indexed transcription-factor model.
type BoijeParams struct {
	Phase2Generation uint    `json:"phase2_generation" yaml:"phase2_generation"`
	Phase3Generation uint    `json:"phase3_generation" yaml:"phase3_generation"`
	ProbAtoh7        float64 `json:"prob_atoh7" yaml:"prob_atoh7"`
	ProbPtf1a        float64 `json:"prob_ptf1a" yaml:"prob_ptf1a"`
	ProbNg           float64 `json:"prob_ng" yaml:"prob_ng"`
	EventStartTime   float64 `json:"event_start_time" yaml:"event_start_time"`
}

// DefaultBoijeParams returns the Boije et al. 2015 parameters.
func DefaultBoijeParams() BoijeParams {
	return BoijeParams{
		Phase2Generation: 3,
		Phase3Generation: 5,
		ProbAtoh7:        0.32,
		ProbPtf1a:        0.3,
		ProbNg:           0.8,
	}
}

// Kind implements Params.
func (BoijeParams) Kind() lineage.Kind { return lineage.KindBoije }

// Boundaries returns the generation thresholds as phase boundaries.
func (p BoijeParams) Boundaries() []float64 {
	return []float64{float64(p.Phase2Generation), float64(p.Phase3Generation)}
}

// Validate implements Params.
func (p BoijeParams) Validate() error {
	var vs lineage.Violations
	if p.Phase3Generation <= p.Phase2Generation {
		vs.Add(lineage.RuleGenerationBounds, "phase3_generation", "must exceed phase2_generation (%d <= %d)", p.Phase3Generation, p.Phase2Generation)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"prob_atoh7", p.ProbAtoh7}, {"prob_ptf1a", p.ProbPtf1a}, {"prob_ng", p.ProbNg}} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			vs.Add(lineage.RuleSignalProbabilities, f.name, "must lie in [0,1], got %g", f.v)
		}
	}
	return vs.Err()
}
