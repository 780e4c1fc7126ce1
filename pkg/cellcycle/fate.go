package cellcycle

import (
	"fmt"
	"math"

	"lineagecore/pkg/lineage"
)

// FateWeight is one entry of a fate distribution.
type FateWeight struct {
	Fate        lineage.Fate `json:"fate" yaml:"fate"`
	Probability float64      `json:"probability" yaml:"probability"`
}

// FateDistribution is an ordered list of terminal fates and their probabilities.
type FateDistribution []FateWeight

// Assign selects a fate for a uniform draw using the same right-closed
// cumulative intervals as the mode table. A draw beyond the cumulative total
// (possible only through rounding) selects the last fate.
func (d FateDistribution) Assign(u float64) lineage.Fate {
	var cumulative float64
	for _, w := range d {
		cumulative += w.Probability
		if u <= cumulative {
			return w.Fate
		}
	}
	if len(d) == 0 {
		return ""
	}
	return d[len(d)-1].Fate
}

// Fates lists the categories in order.
func (d FateDistribution) Fates() []lineage.Fate {
	out := make([]lineage.Fate, len(d))
	for i, w := range d {
		out[i] = w.Fate
	}
	return out
}

// Clone returns an independent copy of the distribution.
func (d FateDistribution) Clone() FateDistribution {
	if d == nil {
		return nil
	}
	return append(FateDistribution(nil), d...)
}

// Validate checks the weights are non-negative, the fates distinct and the total one.
func (d FateDistribution) Validate() error {
	var vs lineage.Violations
	d.validate("fates", &vs)
	return vs.Err()
}

func (d FateDistribution) validate(field string, vs *lineage.Violations) {
	if len(d) == 0 {
		vs.Add(lineage.RuleFateDistribution, field, "at least one fate is required")
		return
	}
	seen := make(map[lineage.Fate]struct{}, len(d))
	var total float64
	for i, w := range d {
		f := fmt.Sprintf("%s[%d]", field, i)
		if w.Fate == "" {
			vs.Add(lineage.RuleFateDistribution, f, "fate name is empty")
		}
		if _, dup := seen[w.Fate]; dup {
			vs.Add(lineage.RuleFateDistribution, f, "fate %s listed more than once", w.Fate)
		}
		seen[w.Fate] = struct{}{}
		if math.IsNaN(w.Probability) || w.Probability < 0 {
			vs.Add(lineage.RuleFateDistribution, f, "probability must be non-negative, got %g", w.Probability)
			continue
		}
		total += w.Probability
	}
	if math.Abs(total-1) > lineage.Tolerance {
		vs.Add(lineage.RuleFateDistribution, field, "probabilities sum to %g, want 1", total)
	}
}
