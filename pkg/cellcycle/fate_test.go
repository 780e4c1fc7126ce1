package cellcycle

import (
	"errors"
	"math"
	"testing"

	"lineagecore/pkg/lineage"
)

func TestFateAssignIntervals(t *testing.T) {
	dist := DefaultGomesParams().Fates()
	cases := []struct {
		u    float64
		want lineage.Fate
	}{
		{0, lineage.FateMG},
		{0.028, lineage.FateMG},
		{math.Nextafter(0.028, 1), lineage.FateAC},
		{0.13, lineage.FateAC},
		{0.2, lineage.FateBC},
		{0.25, lineage.FateBC},
		{0.3, lineage.FateRPh},
		{math.Nextafter(1, 0), lineage.FateRPh},
	}
	for _, tc := range cases {
		if got := dist.Assign(tc.u); got != tc.want {
			t.Fatalf("Assign(%v) = %s, want %s", tc.u, got, tc.want)
		}
	}
}

func TestFateAssignExhaustiveAndExclusive(t *testing.T) {
	dist := FateDistribution{
		{Fate: "a", Probability: 0.25},
		{Fate: "b", Probability: 0},
		{Fate: "c", Probability: 0.5},
		{Fate: "d", Probability: 0.25},
	}
	counts := map[lineage.Fate]int{}
	const steps = 10000
	for i := 0; i < steps; i++ {
		u := float64(i) / steps
		counts[dist.Assign(u)]++
	}
	if counts["b"] != 0 {
		t.Fatalf("zero-weight fate selected %d times", counts["b"])
	}
	total := 0
	for _, w := range dist {
		total += counts[w.Fate]
	}
	if total != steps {
		t.Fatalf("every draw must select exactly one fate: %d of %d", total, steps)
	}
	for fate, want := range map[lineage.Fate]int{"a": 2501, "c": 5000, "d": 2499} {
		if counts[fate] != want {
			t.Fatalf("fate %s selected %d times, want %d", fate, counts[fate], want)
		}
	}
}

func TestFateDistributionValidate(t *testing.T) {
	if err := DefaultGomesParams().Fates().Validate(); err != nil {
		t.Fatalf("reference fates invalid: %v", err)
	}
	bad := []FateDistribution{
		{},
		{{Fate: "a", Probability: 0.5}},
		{{Fate: "a", Probability: 0.5}, {Fate: "a", Probability: 0.5}},
		{{Fate: "", Probability: 1}},
		{{Fate: "a", Probability: 1.5}, {Fate: "b", Probability: -0.5}},
	}
	for i, d := range bad {
		var verr *lineage.ValidationError
		if err := d.Validate(); !errors.As(err, &verr) || !verr.Has(lineage.RuleFateDistribution) {
			t.Fatalf("case %d: expected fate_distribution violation, got %v", i, err)
		}
	}
}

func TestFateDistributionCloneAndFates(t *testing.T) {
	d := DefaultGomesParams().Fates()
	c := d.Clone()
	c[0].Probability = 1
	if d[0].Probability == 1 {
		t.Fatalf("clone shares backing array")
	}
	want := []lineage.Fate{lineage.FateMG, lineage.FateAC, lineage.FateBC, lineage.FateRPh}
	got := d.Fates()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fate order = %v, want %v", got, want)
		}
	}
}
