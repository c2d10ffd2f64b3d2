package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cutout/internal/api"
	"cutout/internal/ipc"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect, export, and remove finished cutouts",
	}

	resultsCmd.AddCommand(newResultsListCommand(ctx))
	resultsCmd.AddCommand(newResultsRemoveCommand(ctx))
	resultsCmd.AddCommand(newResultsExportCommand(ctx))
	resultsCmd.AddCommand(newResultsHistoryCommand(ctx))

	return resultsCmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List results in completion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ResultList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Results)
				}
				if len(resp.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results yet")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Size", "Completed"},
					resultRows(resp.Results),
					2,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}

func resultRows(results []api.ResultItem) [][]string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			result.ID,
			result.Name,
			fmt.Sprintf("%dx%d", result.Width, result.Height),
			formatTimestamp(result.CompletedAt),
		})
	}
	return rows
}

func newResultsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Discard results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RemoveResult(args)
				if err != nil {
					return err
				}
				printRemoveResults(cmd.OutOrStdout(), "result", resp.RemoveResults)
				return nil
			})
		},
	}
}

func newResultsExportCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Write results as <name>_no_bg.png into paths.output_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass result ids or --all")
			}
			if all && len(args) > 0 {
				return errors.New("--all cannot be combined with result ids")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Export(args, all)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				for _, record := range resp.Records {
					fmt.Fprintf(stdout, "Exported %s -> %s\n", record.Name, record.Path)
				}
				for _, line := range resp.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "Export failed: %s\n", line)
				}
				if len(resp.Records) == 0 && len(resp.Errors) == 0 {
					fmt.Fprintln(stdout, "Nothing to export")
				}
				if len(resp.Errors) > 0 {
					return fmt.Errorf("%d exports failed", len(resp.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Export every result")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output export records as JSON")
	return cmd
}

func newResultsHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the export ledger, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExportHistory(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Records)
				}
				if len(resp.Records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No exports recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, record := range resp.Records {
					rows = append(rows, []string{
						fmt.Sprint(record.ID),
						record.Name,
						record.Path,
						fmt.Sprintf("%dx%d", record.Width, record.Height),
						formatTimestamp(record.ExportedAt),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Name", "Path", "Size", "Exported"},
					rows,
					0, 3,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output records as JSON")
	return cmd
}
