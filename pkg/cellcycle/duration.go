package cellcycle

import (
	"math"

	"lineagecore/pkg/lineage"
)

// MinGammaScale floors a drifting gamma scale so the distribution stays defined.
const MinGammaScale = 1e-13

// GenerationDuration is the fixed cycle length of generation-indexed models.
const GenerationDuration = 1.0

// LogNormalDuration draws exp(Normal(mu, sigma)).
func LogNormalDuration(src lineage.RandomSource, mu, sigma float64) float64 {
	return math.Exp(src.Normal(mu, sigma))
}

// ShiftedGamma is a refractory shift followed by a gamma-distributed remainder.
type ShiftedGamma struct {
	Shift float64 `json:"shift" yaml:"shift"`
	Shape float64 `json:"shape" yaml:"shape"`
	Scale float64 `json:"scale" yaml:"scale"`
}

// Sample draws shift + Gamma(shape, scale).
func (g ShiftedGamma) Sample(src lineage.RandomSource) float64 {
	return g.Shift + src.Gamma(g.Shape, g.Scale)
}

// WithScale returns a copy using scale.
func (g ShiftedGamma) WithScale(scale float64) ShiftedGamma {
	g.Scale = scale
	return g
}

func (g ShiftedGamma) validate(field string, vs *lineage.Violations) {
	if !(g.Shape > 0) {
		vs.Add(lineage.RuleGammaParameters, field+".shape", "must be positive, got %g", g.Shape)
	}
	if !(g.Scale > 0) {
		vs.Add(lineage.RuleGammaParameters, field+".scale", "must be positive, got %g", g.Scale)
	}
	if math.IsNaN(g.Shift) || g.Shift < 0 {
		vs.Add(lineage.RuleGammaParameters, field+".shift", "must be non-negative, got %g", g.Shift)
	}
}

// Drift makes the gamma scale a piecewise-linear function of simulation time.
// Before PeakTime the scale moves from its base along IncreasingRateSlope
// (non-positive, so cycles shorten); after it, along DecreasingRateSlope.
type Drift struct {
	PeakTime            float64 `json:"peak_time" yaml:"peak_time"`
	IncreasingRateSlope float64 `json:"increasing_rate_slope" yaml:"increasing_rate_slope"`
	DecreasingRateSlope float64 `json:"decreasing_rate_slope" yaml:"decreasing_rate_slope"`
}

// Scale returns the gamma scale at time t for a base scale, floored at MinGammaScale.
func (d Drift) Scale(base, t float64) float64 {
	var scale float64
	if t <= d.PeakTime {
		scale = base + t*d.IncreasingRateSlope
	} else {
		scale = base + d.PeakTime*d.IncreasingRateSlope + (t-d.PeakTime)*d.DecreasingRateSlope
	}
	return math.Max(scale, MinGammaScale)
}

func (d Drift) validate(field string, vs *lineage.Violations) {
	if math.IsNaN(d.PeakTime) || d.PeakTime < 0 {
		vs.Add(lineage.RuleDriftSlopes, field+".peak_time", "must be non-negative, got %g", d.PeakTime)
	}
	if math.IsNaN(d.IncreasingRateSlope) || d.IncreasingRateSlope > 0 {
		vs.Add(lineage.RuleDriftSlopes, field+".increasing_rate_slope", "must be zero or negative, got %g", d.IncreasingRateSlope)
	}
	if math.IsNaN(d.DecreasingRateSlope) || d.DecreasingRateSlope < 0 {
		vs.Add(lineage.RuleDriftSlopes, field+".decreasing_rate_slope", "must be zero or positive, got %g", d.DecreasingRateSlope)
	}
}

// FastForward advances a lineage that has already been running for offset.
// Successive cycle lengths are drawn and subtracted until the remainder is
// <= 0; the result is the last drawn length plus that remainder, which is
// strictly positive for positive draws. Offsets <= 0 return a single draw.
func FastForward(offset float64, draw func() float64) float64 {
	if offset <= 0 {
		return draw()
	}
	remainder := offset
	var last float64
	for remainder > 0 {
		last = draw()
		remainder -= last
	}
	return last + remainder
}
