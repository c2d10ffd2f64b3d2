package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cutout/internal/api"
	"cutout/internal/ipc"
	"cutout/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items in submission order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Items)
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Status", "Source", "Size", "Submitted", "Error"},
					queueItemRows(resp.Items),
					4,
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status ("+statusNames()+")")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output items as JSON")
	return cmd
}

func queueItemRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		source := item.SourceKind
		if item.SourceURL != "" {
			source = item.SourceURL
		}
		rows = append(rows, []string{
			item.ID,
			item.Name,
			item.StatusLabel,
			source,
			formatBytes(item.SizeBytes),
			formatTimestamp(item.SubmittedAt),
			item.ErrorMessage,
		})
	}
	return rows
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				counts := resp.Workflow.Counts
				if asJSON {
					return writeJSON(cmd, counts)
				}
				if counts.Total == 0 && counts.Completed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, queueCountRows(counts), 1))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output counts as JSON")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove pending, processing, or failed items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Remove(args)
				if err != nil {
					return err
				}
				printRemoveResults(cmd.OutOrStdout(), "item", resp.RemoveResults)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queue item and result (only while idle)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Clear()
				if err != nil {
					return fmt.Errorf("clear queue: %w", err)
				}
				cleared := resp.Cleared
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d queue items and %d results\n",
					cleared.Pending+cleared.Processing+cleared.Failed, cleared.Completed)
				return nil
			})
		},
	}
}

func printRemoveResults(w io.Writer, noun string, results api.RemoveResults) {
	for _, item := range results.Items {
		switch item.Outcome {
		case api.RemoveOutcomeRemoved:
			fmt.Fprintf(w, "Removed %s %s\n", noun, item.ID)
		default:
			fmt.Fprintf(w, "No %s with id %s\n", noun, item.ID)
		}
	}
	fmt.Fprintf(w, "%d removed\n", results.RemovedCount)
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

func formatTimestamp(value string) string {
	t := api.ParseTime(value)
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

func statusNames() string {
	names := make([]string, 0, 4)
	for _, status := range queue.AllStatuses() {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
