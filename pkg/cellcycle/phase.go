package cellcycle

import (
	"math"

	"lineagecore/pkg/lineage"
)

// SelectPhase returns the 1-based phase for value. Boundaries are scanned in
// order; a value equal to a boundary stays in the current phase and a value
// strictly above it advances.
func SelectPhase(value float64, boundaries []float64) int {
	phase := 1
	for _, b := range boundaries {
		if value <= b {
			break
		}
		phase++
	}
	return phase
}

func validateBoundaries(field string, boundaries []float64, vs *lineage.Violations) {
	for i, b := range boundaries {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			vs.Add(lineage.RulePhaseBoundaries, field, "boundary %d is not finite", i+1)
			continue
		}
		if i > 0 && b <= boundaries[i-1] {
			vs.Add(lineage.RulePhaseBoundaries, field, "boundary %d (%g) must exceed boundary %d (%g)", i+1, b, i, boundaries[i-1])
		}
	}
}
