package lineage

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseMitoticMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMitoticMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMitoticMode(%q) = %v, %v", m.String(), got, err)
		}
		got, err = ParseMitoticMode(fmt.Sprint(m.Code()))
		if err != nil || got != m {
			t.Fatalf("ParseMitoticMode(%d) = %v, %v", m.Code(), got, err)
		}
	}
	if _, err := ParseMitoticMode("XX"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if got := MitoticMode(9).String(); got != "MitoticMode(9)" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		if got, err := ParseKind(k.String()); err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("chaste"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestFatePropertyIsNamespaced(t *testing.T) {
	if got := FateRGC.Property(); got != "fate:rgc" {
		t.Fatalf("unexpected property %q", got)
	}
	if f, ok := FateOf(FateACHC.Property()); !ok || f != FateACHC {
		t.Fatalf("expected round trip to %q, got %q %v", FateACHC, f, ok)
	}
	if _, ok := FateOf(PropertyLabel); ok {
		t.Fatalf("label is not a fate marker")
	}
}

func TestViolationsErr(t *testing.T) {
	var vs Violations
	if vs.Err() != nil {
		t.Fatalf("empty violations should not error")
	}
	vs.Add(RuleWidths, "sister_shift_width", "must be non-negative, got %g", -1.0)
	vs.Merge(nil)
	vs.Merge(errors.New("boom"))
	err := vs.Err()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Violations) != 2 || !verr.Has(RuleWidths) || verr.Has(RuleDriftSlopes) {
		t.Fatalf("unexpected violations %+v", verr.Violations)
	}
	if !strings.Contains(err.Error(), "widths: sister_shift_width: must be non-negative, got -1") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	var merged Violations
	merged.Merge(err)
	if len(merged) != 2 {
		t.Fatalf("merge should flatten validation errors, got %d", len(merged))
	}
}
