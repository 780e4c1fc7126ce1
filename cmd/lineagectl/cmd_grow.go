package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"lineagecore/internal/artifact"
	"lineagecore/internal/blob"
	"lineagecore/internal/clone"
	"lineagecore/internal/config"
	"lineagecore/internal/debugrec"
	"lineagecore/internal/eventlog"
)

// summaryName is the archived name of a grow summary.
const summaryName = "summary.yaml"

func newGrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow clones from founder cells under the configured model",
		Long: `Grow clones from founder cells under the configured model.

Cells divide in due-time order until --max-time or --max-cells is reached.
Event logs and debug tables are written as configured. With --archive the
summary and any file outputs are stored in the blob store under the run id.

Examples:
  lineagectl grow --config run.yaml --founders 10 --max-time 120
  lineagectl grow --variant boije --seed 3 --max-time 8 --archive boije-3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := selectVariant(cmd, cfg); err != nil {
				return err
			}
			opts := clone.Options{}
			opts.Founders, _ = cmd.Flags().GetInt("founders")
			opts.MaxTime, _ = cmd.Flags().GetFloat64("max-time")
			opts.MaxCells, _ = cmd.Flags().GetInt("max-cells")
			trace, _ := cmd.Flags().GetBool("trace")
			opts.TraceSequence = trace || cfg.SequenceSampler
			run, _ := cmd.Flags().GetString("archive")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			sum, err := grow(cmd.Context(), cmd, cfg, opts)
			if err != nil {
				return err
			}
			if err := emit(cmd, sum); err != nil {
				return err
			}
			if run == "" {
				return nil
			}
			return archiveRun(cmd.Context(), cmd, cfg, run, sum, overwrite)
		},
	}
	addVariantFlags(cmd)
	cmd.Flags().Int("founders", 1, "Number of founder cells")
	cmd.Flags().Float64("max-time", math.Inf(1), "Stop before the first division due after this time")
	cmd.Flags().Int("max-cells", 10000, "Stop once this many cells exist (0 = no limit)")
	cmd.Flags().Bool("trace", false, "Record the mode sequence along one lineage path")
	cmd.Flags().String("archive", "", "Archive outputs under this run id")
	cmd.Flags().Bool("overwrite", false, "Replace existing archived artifacts")
	return cmd
}

func grow(ctx context.Context, cmd *cobra.Command, cfg *config.RunConfig, opts clone.Options) (clone.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.MaxTime <= 0 && opts.MaxCells <= 0 {
		return clone.Summary{}, errors.New("grow needs a positive --max-time or --max-cells")
	}
	clock := &clone.Clock{}
	env, err := config.Build(ctx, cfg, clock, cmd.ErrOrStderr())
	if err != nil {
		return clone.Summary{}, err
	}
	sum, _, growErr := clone.Grow(ctx, clock, env.NewModel, opts)
	if err := env.Close(); err != nil && growErr == nil {
		growErr = err
	}
	if growErr != nil {
		return clone.Summary{}, growErr
	}
	env.Logger.Info("clone grown",
		"variant", string(cfg.Variant),
		"cells", sum.Cells,
		"divisions", sum.Divisions,
		"end_time", sum.EndTime,
	)
	return sum, nil
}

// archiveRun stores the summary and the file-backed outputs of a run.
func archiveRun(ctx context.Context, cmd *cobra.Command, cfg *config.RunConfig, run string, sum clone.Summary, overwrite bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	a := artifact.NewArchiver(store)

	var buf bytes.Buffer
	if err := encode(&buf, sum, false); err != nil {
		return err
	}
	entries := make([]artifact.Entry, 0, 3)
	e, err := a.Put(ctx, run, cfg.Seed, summaryName, &buf, overwrite)
	if err != nil {
		return err
	}
	entries = append(entries, e)
	for _, p := range outputFiles(cfg) {
		e, err := a.PutFile(ctx, run, cfg.Seed, p, overwrite)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.ErrOrStderr(), "archived %s (%d bytes)\n", e.Key, e.Size)
	}
	return nil
}

// outputFiles lists the files a run wrote locally.
func outputFiles(cfg *config.RunConfig) []string {
	var out []string
	if cfg.Events.Enabled && cfg.Events.Path != "" {
		switch cfg.Events.Driver {
		case eventlog.DriverText, eventlog.DriverSQLite, "":
			out = append(out, cfg.Events.Path)
		}
	}
	if cfg.Debug.Enabled && cfg.Debug.Path != "" {
		switch cfg.Debug.Format {
		case debugrec.FormatText, debugrec.FormatSQLite, "":
			out = append(out, cfg.Debug.Path)
		}
	}
	return out
}
