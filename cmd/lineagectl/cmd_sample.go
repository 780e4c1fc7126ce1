package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"lineagecore/internal/clone"
	"lineagecore/internal/config"
	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/lineage"
	"lineagecore/pkg/rng"
)

func newDurationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "durations",
		Short: "Print a reproducible stream of sampled cycle durations",
		Long: `Print a reproducible stream of sampled cycle durations.

The same seed always yields the same stream.

Examples:
  lineagectl durations --variant gomes --seed 7 -n 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := selectVariant(cmd, cfg); err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("count")
			p, err := cfg.Params()
			if err != nil {
				return err
			}
			m, err := cellcycle.New(p, cellcycle.WithRandom(rng.New(cfg.Seed)))
			if err != nil {
				return err
			}
			out := make([]float64, 0, n)
			for i := 0; i < n; i++ {
				m.SetCycleDuration()
				out = append(out, m.CycleDuration())
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return emit(cmd, out)
			}
			for _, d := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", d)
			}
			return nil
		},
	}
	addVariantFlags(cmd)
	cmd.Flags().IntP("count", "n", 10, "Number of durations")
	return cmd
}

// modeTally is the output of the modes command.
type modeTally struct {
	Variant   lineage.Kind       `json:"variant" yaml:"variant"`
	Phase     int                `json:"phase" yaml:"phase"`
	Trials    int                `json:"trials" yaml:"trials"`
	Frequency map[string]float64 `json:"frequency" yaml:"frequency"`
	Fates     map[string]int     `json:"fates,omitempty" yaml:"fates,omitempty"`
}

func newModesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "Tabulate mitotic mode frequencies in one phase",
		Long: `Tabulate mitotic mode frequencies in one phase.

Each trial divides a fresh copy of a founder model placed in the requested
phase and records the chosen mode and any fate assigned at the division.

Examples:
  lineagectl modes --variant he --phase 2 --seed 1 -n 10000
  lineagectl modes --variant boije --phase 3 -n 5000 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := selectVariant(cmd, cfg); err != nil {
				return err
			}
			phase, _ := cmd.Flags().GetInt("phase")
			n, _ := cmd.Flags().GetInt("count")
			tally, err := tallyModes(cfg, phase, n)
			if err != nil {
				return err
			}
			return emit(cmd, tally)
		},
	}
	addVariantFlags(cmd)
	cmd.Flags().Int("phase", 1, "Phase to sample (1-3)")
	cmd.Flags().IntP("count", "n", 10000, "Number of trials")
	return cmd
}

func tallyModes(cfg *config.RunConfig, phase, n int) (modeTally, error) {
	if n <= 0 {
		return modeTally{}, fmt.Errorf("trial count must be positive, got %d", n)
	}
	p, err := cfg.Params()
	if err != nil {
		return modeTally{}, err
	}
	now := 0.0
	generation := uint(0)
	if b, ok := p.(interface{ Boundaries() []float64 }); ok {
		t, err := phaseTime(phase, b.Boundaries())
		if err != nil {
			return modeTally{}, err
		}
		switch pp := p.(type) {
		case cellcycle.BoijeParams:
			generation = uint(t)
		case cellcycle.HeParams:
			now = t - pp.LineageTimeOffset
		}
	} else if phase != 1 {
		return modeTally{}, fmt.Errorf("%s has a single phase, got %d", p.Kind(), phase)
	}

	template, err := cellcycle.New(p,
		cellcycle.WithRandom(rng.New(cfg.Seed)),
		cellcycle.WithClock(lineage.ClockFunc(func() float64 { return now })))
	if err != nil {
		return modeTally{}, err
	}
	template.Initialise(clone.NewCell(0))
	template.SetGeneration(generation)

	counts := make(map[lineage.MitoticMode]int, len(lineage.Modes))
	fates := make(map[string]int)
	for i := 0; i < n; i++ {
		m := template.Clone()
		c := clone.NewCell(uint64(i + 1))
		m.ResetForDivision(c)
		counts[m.Mode()]++
		d := c.CopyTo(uint64(n + i + 1))
		m.Clone().InitialiseDaughterCell(d)
		for _, f := range d.Fates() {
			fates[string(f)]++
		}
		for _, f := range c.Fates() {
			fates[string(f)]++
		}
	}
	out := modeTally{Variant: p.Kind(), Phase: phase, Trials: n, Frequency: make(map[string]float64, len(lineage.Modes))}
	for _, mode := range lineage.Modes {
		out.Frequency[mode.String()] = float64(counts[mode]) / float64(n)
	}
	if len(fates) > 0 {
		out.Fates = fates
	}
	return out, nil
}

// phaseTime returns a lineage time (or generation) that falls inside phase
// given the phase boundaries.
func phaseTime(phase int, boundaries []float64) (float64, error) {
	sorted := append([]float64(nil), boundaries...)
	sort.Float64s(sorted)
	switch phase {
	case 1:
		return 0, nil
	case 2:
		return sorted[0] + 1, nil
	case 3:
		return sorted[len(sorted)-1] + 1, nil
	}
	return 0, fmt.Errorf("phase must be 1, 2 or 3, got %d", phase)
}
