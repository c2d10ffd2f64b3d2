package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutout/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Ask the daemon to send a test ntfy notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				msg := "Notification not sent"
				switch {
				case resp != nil && resp.Message != "":
					msg = resp.Message
				case resp != nil && resp.Sent:
					msg = "Test notification sent"
				}
				if err != nil && (resp == nil || resp.Message == "") {
					return fmt.Errorf("test notification: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return err
			})
		},
	}
}
