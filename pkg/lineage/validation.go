package lineage

import (
	"errors"
	"fmt"
	"strings"
)

// Validation rule names reported in violations.
const (
	RuleModeProbabilities   = "mode_probabilities"
	RulePhaseBoundaries     = "phase_boundaries"
	RuleGammaParameters     = "gamma_parameters"
	RuleLogNormalParameters = "lognormal_parameters"
	RuleFateDistribution    = "fate_distribution"
	RuleWidths              = "widths"
	RuleDriftSlopes         = "drift_slopes"
	RuleSignalProbabilities = "signal_probabilities"
	RuleGenerationBounds    = "generation_boundaries"
)

// Tolerance absorbs float rounding when checking that probabilities sum to one.
const Tolerance = 1e-9

// Violation describes one failed configuration rule.
type Violation struct {
	Rule    string
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Rule, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Rule, v.Field, v.Message)
}

// ValidationError aggregates every violation found while checking a configuration.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "invalid model configuration: " + strings.Join(parts, "; ")
}

// Has reports whether a violation of the named rule is present.
func (e *ValidationError) Has(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Violations collects violations and converts them into an error.
type Violations []Violation

// Add records a violation.
func (vs *Violations) Add(rule, field, format string, args ...any) {
	*vs = append(*vs, Violation{Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge appends violations from an error produced by another validator.
// Errors that are not validation errors are wrapped as a single violation.
func (vs *Violations) Merge(err error) {
	if err == nil {
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		*vs = append(*vs, verr.Violations...)
		return
	}
	*vs = append(*vs, Violation{Rule: "invalid", Message: err.Error()})
}

// Err returns nil when no violations were recorded.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: append([]Violation(nil), vs...)}
}
