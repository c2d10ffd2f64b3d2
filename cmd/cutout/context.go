package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cutout/internal/config"
	"cutout/internal/ipc"
)

// annotationNoConfig marks commands that must run without a loadable config.
const annotationNoConfig = "cutout/no-config"

// globalFlags holds the persistent root flags.
type globalFlags struct {
	socket string
	config string
}

// commandContext lazily loads configuration once per invocation and hands
// commands an IPC client.
type commandContext struct {
	flags *globalFlags

	loaded     bool
	cfg        *config.Config
	configPath string
	loadErr    error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.loaded {
		return c.cfg, c.loadErr
	}
	c.loaded = true
	cfg, path, _, err := config.Load(c.configFlagValue())
	if err == nil {
		err = cfg.EnsureDirectories()
	}
	if err != nil {
		c.loadErr = err
		return nil, err
	}
	c.cfg, c.configPath = cfg, path
	return cfg, nil
}

func (c *commandContext) configFlagValue() string {
	return strings.TrimSpace(c.flags.config)
}

// configValue returns the loaded config, or nil when loading failed.
func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) socketPath() string {
	if socket := strings.TrimSpace(c.flags.socket); socket != "" {
		return socket
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	fallback := config.Default()
	if dir, err := config.ExpandPath(fallback.Paths.StateDir); err == nil {
		fallback.Paths.StateDir = dir
		return fallback.SocketPath()
	}
	return filepath.Join(os.TempDir(), "cutout.sock")
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return dialError(socket, err)
	}
	defer client.Close()
	return fn(client)
}

func dialError(socket string, err error) error {
	if errors.Is(err, syscall.ENOENT) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("connect to daemon: no socket at %s; run `cutout start` first", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: %s refused the connection; the daemon may have crashed, run `cutout start`", socket)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

func skipsConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[annotationNoConfig] == "true" {
			return true
		}
	}
	return false
}
