package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cutout/internal/daemonctl"
)

const (
	startTimeout = 10 * time.Second
	stopGrace    = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{newStartCommand(ctx), newStopCommand(ctx), newStatusCommand(ctx)}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			opts := daemonctl.LaunchOptions{ConfigPath: ctx.configFlagValue()}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, opts, startTimeout)
			if err != nil {
				return err
			}
			verb := "started"
			if result.State == daemonctl.StartStateAlreadyRunning {
				verb = "already running"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon %s (pid %d)\n", verb, result.PID)
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.socketPath(), ctx.configValue(), stopGrace)
			switch {
			case errors.Is(err, daemonctl.ErrDaemonNotRunning):
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			case err != nil:
				return err
			case result.ForcedKill:
				fmt.Fprintf(out, "Daemon ignored SIGTERM for %s; killed pid %d\n", stopGrace, result.PID)
			default:
				fmt.Fprintln(out, "Daemon stopped")
			}
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and queue counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), ctx.configValue())
			if err != nil {
				return err
			}
			status := snapshot.DaemonStatus
			if asJSON {
				return writeJSON(cmd, status)
			}

			r := newReport(cmd.OutOrStdout())
			r.section("Daemon")
			r.entries(describeDaemon(status)...)
			if !status.Running {
				return nil
			}
			fmt.Fprintln(r.w)
			r.section("Queue")
			counts := status.Workflow.Counts
			if counts.Total == 0 && counts.Completed == 0 {
				fmt.Fprintln(r.w, "Queue is empty")
				return nil
			}
			fmt.Fprint(r.w, renderTable([]string{"Status", "Count"}, queueCountRows(counts), 1))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}
