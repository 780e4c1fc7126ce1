package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lineagecore/internal/config"
	"lineagecore/pkg/lineage"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print or validate model parameters",
	}
	cmd.AddCommand(newParamsDefaultsCmd(), newParamsValidateCmd())
	return cmd
}

func newParamsDefaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the published default parameters of a variant",
		Long: `Print the published default parameters of a variant.

Examples:
  lineagectl params defaults --variant he
  lineagectl params defaults --variant he --deterministic
  lineagectl params defaults --variant gomes --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _ := cmd.Flags().GetString("variant")
			deterministic, _ := cmd.Flags().GetBool("deterministic")
			kind, err := lineage.ParseKind(v)
			if err != nil {
				return err
			}
			p, err := defaultParams(kind, deterministic)
			if err != nil {
				return err
			}
			return emit(cmd, p)
		},
	}
	cmd.Flags().String("variant", string(lineage.KindHe), "Model variant: he, gomes or boije")
	cmd.Flags().Bool("deterministic", false, "He only: deterministic-mode defaults")
	return cmd
}

func newParamsValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path, _ = cmd.Flags().GetString("config")
			}
			if path == "" {
				return errors.New("a configuration file is required (-f)")
			}
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				var verr *lineage.ValidationError
				if errors.As(err, &verr) {
					for _, v := range verr.Violations {
						fmt.Fprintln(cmd.ErrOrStderr(), v.String())
					}
				}
				return fmt.Errorf("%s: invalid configuration: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (variant %s)\n", path, cfg.Variant)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Configuration file to validate")
	return cmd
}
