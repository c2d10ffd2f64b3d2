package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := &commandContext{flags: flags}

	root := &cobra.Command{
		Use:   "cutout",
		Short: "Queue images and strip their backgrounds",
		Long: "cutout runs a background daemon that removes image backgrounds one item at a time.\n" +
			"Use `cutout start` to launch it, then `cutout add` to queue files or URLs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	root.PersistentFlags().StringVar(&flags.socket, "socket", "", "daemon socket path (default: <state_dir>/cutout.sock)")
	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "configuration file path")

	root.AddCommand(newDaemonCommands(ctx)...)
	root.AddCommand(
		newDaemonRunCommand(ctx),
		newAddCommand(ctx),
		newQueueCommand(ctx),
		newResultsCommand(ctx),
		newCheckCommand(ctx),
		newLogsCommand(ctx),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
