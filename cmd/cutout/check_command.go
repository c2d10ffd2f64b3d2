package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutout/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks against the current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				r := newReport(cmd.OutOrStdout())
				r.section("Preflight")
				for _, result := range results {
					sev := sevOK
					if !result.Passed {
						sev = sevError
					}
					r.entries(statusEntry{result.Name, sev, result.Detail})
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}
