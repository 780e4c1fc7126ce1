package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lineagecore/internal/artifact"
	"lineagecore/internal/blob"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and fetch run artifacts in the blob store",
		Long: `Store and fetch run artifacts in the blob store.

The store is selected by the blob section of --config and the
LINEAGECORE_BLOB_* environment variables.`,
	}
	cmd.PersistentFlags().String("run", "", "Run id")
	cmd.PersistentFlags().Uint64("seed", 0, "Seed of the run")
	cmd.AddCommand(newArchivePutCmd(), newArchiveListCmd(), newArchiveGetCmd(), newArchiveDeleteCmd())
	return cmd
}

func openArchiver(cmd *cobra.Command) (*artifact.Archiver, context.Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, nil, err
	}
	return artifact.NewArchiver(store), ctx, nil
}

func runFlags(cmd *cobra.Command) (string, uint64, error) {
	run, _ := cmd.Flags().GetString("run")
	seed, _ := cmd.Flags().GetUint64("seed")
	if run == "" {
		return "", 0, errors.New("--run is required")
	}
	return run, seed, nil
}

func newArchivePutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put FILE...",
		Short: "Archive files under a run and seed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, seed, err := runFlags(cmd)
			if err != nil {
				return err
			}
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			a, ctx, err := openArchiver(cmd)
			if err != nil {
				return err
			}
			for _, p := range args {
				e, err := a.PutFile(ctx, run, seed, p, overwrite)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", e.Key, e.Size, e.Checksum)
			}
			return nil
		},
	}
	cmd.Flags().Bool("overwrite", false, "Replace existing artifacts")
	return cmd
}

func newArchiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived artifacts (all runs when --run is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, _ := cmd.Flags().GetString("run")
			a, ctx, err := openArchiver(cmd)
			if err != nil {
				return err
			}
			entries, err := a.List(ctx, run)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return emit(cmd, entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSEED\tNAME\tSIZE\tTYPE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", e.Run, e.Seed, e.Name, e.Size, e.ContentType)
			}
			return tw.Flush()
		},
	}
}

func newArchiveGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Write an archived artifact to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, seed, err := runFlags(cmd)
			if err != nil {
				return err
			}
			a, ctx, err := openArchiver(cmd)
			if err != nil {
				return err
			}
			rc, _, err := a.Open(ctx, run, seed, args[0])
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(cmd.OutOrStdout(), rc)
			return err
		},
	}
}

func newArchiveDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove an archived artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, seed, err := runFlags(cmd)
			if err != nil {
				return err
			}
			a, ctx, err := openArchiver(cmd)
			if err != nil {
				return err
			}
			existed, err := a.Delete(ctx, run, seed, args[0])
			if err != nil {
				return err
			}
			if !existed {
				return fmt.Errorf("%s: %w", args[0], blob.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
