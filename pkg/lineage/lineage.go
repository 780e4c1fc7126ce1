// Package lineage defines the value types and collaborator contracts shared by
// the lineage cell-cycle models: mitotic modes, fates, cell properties, the
// host cell interface, and the random, event and debug sinks a model writes to.
package lineage

import (
	"fmt"
	"math"
	"strings"
)

// Infinite is the cycle duration assigned to a cell that has permanently left the cycle.
const Infinite = math.MaxFloat64

// MitoticMode is the outcome category of a single division.
type MitoticMode uint8

// Mitotic modes. The numeric values are the codes written to event logs.
const (
	// ModePP keeps both daughters proliferative.
	ModePP MitoticMode = 0
	// ModePD sends exactly one daughter out of the cycle.
	ModePD MitoticMode = 1
	// ModeDD sends both daughters out of the cycle.
	ModeDD MitoticMode = 2
)

// Modes lists every mitotic mode in code order.
var Modes = []MitoticMode{ModePP, ModePD, ModeDD}

// Code returns the integer encoding used in event and sequence logs.
func (m MitoticMode) Code() int { return int(m) }

func (m MitoticMode) String() string {
	switch m {
	case ModePP:
		return "PP"
	case ModePD:
		return "PD"
	case ModeDD:
		return "DD"
	default:
		return fmt.Sprintf("MitoticMode(%d)", uint8(m))
	}
}

// ParseMitoticMode maps "PP", "PD", "DD" or their integer codes to a mode.
func ParseMitoticMode(s string) (MitoticMode, error) {
	switch s {
	case "PP", "pp", "0":
		return ModePP, nil
	case "PD", "pd", "1":
		return ModePD, nil
	case "DD", "dd", "2":
		return ModeDD, nil
	}
	return 0, fmt.Errorf("unknown mitotic mode %q", s)
}

// Kind identifies a concrete model variant.
type Kind string

// Model variants.
const (
	// KindBoije is the generation-indexed transcription-factor model.
	KindBoije Kind = "boije"
	// KindGomes is the time-indexed single-stage log-normal model.
	KindGomes Kind = "gomes"
	// KindHe is the time-indexed three-phase shifted-gamma model.
	KindHe Kind = "he"
)

func (k Kind) String() string { return string(k) }

// Kinds lists the supported variants.
var Kinds = []Kind{KindBoije, KindGomes, KindHe}

// ParseKind validates a variant name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown model variant %q (valid: boije, gomes, he)", s)
}

// Fate is a terminal, non-proliferative cell category.
type Fate string

// Terminal fates. Each variant draws from its own closed subset.
const (
	// FateRGC is a retinal ganglion cell (Boije).
	FateRGC Fate = "rgc"
	// FateACHC lumps amacrine and horizontal cells (Boije).
	FateACHC Fate = "ac_hc"
	// FatePRBC lumps photoreceptors and bipolar cells (Boije).
	FatePRBC Fate = "pr_bc"

	FateRPh Fate = "rph" // rod photoreceptor (Gomes)
	FateBC  Fate = "bc"  // bipolar cell (Gomes)
	FateAC  Fate = "ac"  // amacrine cell (Gomes)
	FateMG  Fate = "mg"  // Muller glia (Gomes)

	// FatePostMitotic is the single generic category used by the He model.
	FatePostMitotic Fate = "post_mitotic"
)

const fatePrefix = "fate:"

// Property returns the cell property marking a cell with this fate.
func (f Fate) Property() Property { return Property(fatePrefix + string(f)) }

// FateOf reports the fate a property marks, if it is a fate marker.
func FateOf(p Property) (Fate, bool) {
	f, ok := strings.CutPrefix(string(p), fatePrefix)
	return Fate(f), ok
}

// Property is a named marker carried by a cell.
type Property string

// Markers the models read or write.
const (
	// PropertyLabel marks the single lineage path traced by the sequence sampler.
	PropertyLabel Property = "label"
	// PropertyMorphant marks an Ath5 morphant cell.
	PropertyMorphant Property = "ath5_morphant"
)

// ProliferativeType is the proliferative state a model assigns to its cell.
type ProliferativeType string

// Proliferative states.
const (
	TypeTransit        ProliferativeType = "transit"
	TypeDifferentiated ProliferativeType = "differentiated"
)
