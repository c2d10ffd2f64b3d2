package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cutout/internal/config"
	"cutout/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "add <file|url>...",
		Short: "Queue images for background removal",
		Long: "Queue one or more images. Local files are read and sent to the daemon; " +
			"http(s), file:// and data: URLs are passed through and fetched when processed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name can only be used with a single image")
			}
			entries := make([]ipc.SubmitEntry, 0, len(args))
			for _, arg := range args {
				entry, err := buildSubmitEntry(arg)
				if err != nil {
					return err
				}
				if name != "" {
					entry.Name = name
				}
				entries = append(entries, entry)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(entries)
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				for _, item := range resp.Items {
					fmt.Fprintf(stdout, "Queued %s (%s)\n", item.Name, item.ID)
				}
				for _, rejected := range resp.Rejected {
					label := rejected.Name
					if label == "" && rejected.Index >= 0 && rejected.Index < len(args) {
						label = args[rejected.Index]
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Rejected %s: %s\n", label, rejected.Error)
				}
				if len(resp.Items) == 0 {
					return errors.New("no images were queued")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for a single image")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the daemon response as JSON")
	return cmd
}

func isRemoteSource(arg string) bool {
	lower := strings.ToLower(arg)
	for _, prefix := range []string{"http://", "https://", "file://", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func buildSubmitEntry(arg string) (ipc.SubmitEntry, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return ipc.SubmitEntry{}, errors.New("image path or URL is required")
	}
	if isRemoteSource(arg) {
		return ipc.SubmitEntry{URL: arg}, nil
	}

	path, err := config.ExpandPath(arg)
	if err != nil {
		return ipc.SubmitEntry{}, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ipc.SubmitEntry{}, fmt.Errorf("file does not exist: %s", path)
		}
		return ipc.SubmitEntry{}, fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return ipc.SubmitEntry{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ipc.SubmitEntry{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ipc.SubmitEntry{Name: filepath.Base(path), Data: data}, nil
}
