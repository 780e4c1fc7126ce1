package cellcycle

import (
	"errors"
	"math"
	"testing"

	"lineagecore/pkg/lineage"
)

func TestModeProbabilitiesDecideIntervals(t *testing.T) {
	cases := []struct {
		name string
		p    ModeProbabilities
		u    float64
		want lineage.MitoticMode
	}{
		{"zero draw selects PP", ModeProbabilities{PP: 0.2, PD: 0.4}, 0, lineage.ModePP},
		{"draw equal to PP stays PP", ModeProbabilities{PP: 0.2, PD: 0.4}, 0.2, lineage.ModePP},
		{"draw just above PP selects PD", ModeProbabilities{PP: 0.2, PD: 0.4}, math.Nextafter(0.2, 1), lineage.ModePD},
		{"draw equal to PP+PD stays PD", ModeProbabilities{PP: 0.25, PD: 0.5}, 0.75, lineage.ModePD},
		{"draw above PP+PD selects DD", ModeProbabilities{PP: 0.25, PD: 0.5}, math.Nextafter(0.75, 1), lineage.ModeDD},
		{"draw near one selects DD", ModeProbabilities{PP: 0.2, PD: 0.4}, math.Nextafter(1, 0), lineage.ModeDD},
		{"zero PP never selects PP above zero", ModeProbabilities{PP: 0, PD: 1}, 0.5, lineage.ModePD},
		{"zero draw with zero PP is PP", ModeProbabilities{PP: 0, PD: 1}, 0, lineage.ModePP},
		{"full PP", ModeProbabilities{PP: 1}, math.Nextafter(1, 0), lineage.ModePP},
		{"zero PD skips to DD", ModeProbabilities{PP: 0.2, PD: 0}, 0.3, lineage.ModeDD},
		{"probabilities summing to one never yield DD", ModeProbabilities{PP: 0.5, PD: 0.5}, math.Nextafter(1, 0), lineage.ModePD},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Decide(tc.u); got != tc.want {
				t.Fatalf("Decide(%v) with %+v = %s, want %s", tc.u, tc.p, got, tc.want)
			}
		})
	}
}

func TestModeTableRowClampsPhase(t *testing.T) {
	table := ModeTable{{PP: 1}, {PP: 0.2, PD: 0.4}, {PP: 0.2}}
	if got := table.Row(0); got != table[0] {
		t.Fatalf("phase 0 should clamp to first row, got %+v", got)
	}
	if got := table.Row(7); got != table[2] {
		t.Fatalf("phase 7 should clamp to last row, got %+v", got)
	}
	if got := (ModeTable{}).Row(2); got.PP != 1 {
		t.Fatalf("empty table should always proliferate, got %+v", got)
	}
	if got := table.Decide(2, 0.5); got != lineage.ModePD {
		t.Fatalf("phase 2 draw 0.5 = %s, want PD", got)
	}
}

func TestModeTableCloneIsIndependent(t *testing.T) {
	table := ModeTable{{PP: 1}}
	c := table.Clone()
	c[0].PP = 0
	if table[0].PP != 1 {
		t.Fatalf("clone shares backing array")
	}
}

func TestModeTableValidate(t *testing.T) {
	cases := []struct {
		name  string
		table ModeTable
		ok    bool
	}{
		{"reference fit", DefaultHeParams().Modes, true},
		{"sum exactly one", ModeTable{{PP: 0.3, PD: 0.7}}, true},
		{"sum within tolerance", ModeTable{{PP: 0.1 + 0.2, PD: 0.7}}, true},
		{"sum above one", ModeTable{{PP: 0.6, PD: 0.5}}, false},
		{"negative PP", ModeTable{{PP: -0.1, PD: 0.5}}, false},
		{"NaN PD", ModeTable{{PP: 0.1, PD: math.NaN()}}, false},
		{"empty", ModeTable{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.table.Validate()
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *lineage.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !verr.Has(lineage.RuleModeProbabilities) {
				t.Fatalf("expected %s violation, got %v", lineage.RuleModeProbabilities, verr)
			}
		})
	}
}
