package cellcycle

import (
	"fmt"
	"math"

	"lineagecore/pkg/lineage"
)

// ModeProbabilities holds the PP and PD probabilities of one phase. The DD
// probability is the remainder.
type ModeProbabilities struct {
	PP float64 `json:"pp" yaml:"pp"`
	PD float64 `json:"pd" yaml:"pd"`
}

// DD returns the implied probability of a symmetric differentiative division.
func (p ModeProbabilities) DD() float64 { return 1 - p.PP - p.PD }

// Decide maps a uniform draw onto a mode using right-closed cumulative
// intervals: PP when u <= PP, PD when PP < u <= PP+PD, DD otherwise.
func (p ModeProbabilities) Decide(u float64) lineage.MitoticMode {
	switch {
	case u <= p.PP:
		return lineage.ModePP
	case u <= p.PP+p.PD:
		return lineage.ModePD
	default:
		return lineage.ModeDD
	}
}

// ModeTable holds one row of mode probabilities per phase, phase 1 first.
type ModeTable []ModeProbabilities

// Decide returns the mode for a 1-based phase and a uniform draw. Phases past
// the last row use the last row.
func (t ModeTable) Decide(phase int, u float64) lineage.MitoticMode {
	return t.Row(phase).Decide(u)
}

// Row returns the probabilities for a 1-based phase, clamped to the table.
func (t ModeTable) Row(phase int) ModeProbabilities {
	if len(t) == 0 {
		return ModeProbabilities{PP: 1}
	}
	idx := phase - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(t) {
		idx = len(t) - 1
	}
	return t[idx]
}

// Clone returns an independent copy of the table.
func (t ModeTable) Clone() ModeTable {
	if t == nil {
		return nil
	}
	return append(ModeTable(nil), t...)
}

// Validate checks that each row is non-negative and sums to at most one.
func (t ModeTable) Validate() error {
	var vs lineage.Violations
	t.validate("modes", &vs)
	return vs.Err()
}

func (t ModeTable) validate(field string, vs *lineage.Violations) {
	if len(t) == 0 {
		vs.Add(lineage.RuleModeProbabilities, field, "at least one phase is required")
		return
	}
	for i, row := range t {
		f := fmt.Sprintf("%s[%d]", field, i)
		validateModeRow(f, row, vs)
	}
}

func validateModeRow(field string, row ModeProbabilities, vs *lineage.Violations) {
	if math.IsNaN(row.PP) || math.IsNaN(row.PD) {
		vs.Add(lineage.RuleModeProbabilities, field, "probabilities must be numbers")
		return
	}
	if row.PP < 0 || row.PD < 0 {
		vs.Add(lineage.RuleModeProbabilities, field, "probabilities must be non-negative (pp=%g pd=%g)", row.PP, row.PD)
	}
	if row.PP+row.PD > 1+lineage.Tolerance {
		vs.Add(lineage.RuleModeProbabilities, field, "pp+pd = %g exceeds 1", row.PP+row.PD)
	}
}
