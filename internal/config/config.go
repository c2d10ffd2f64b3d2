package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths locates state, logs and exports, and configures the HTTP API.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Queue bounds the work queue. Zero values disable the bound.
type Queue struct {
	MaxPending       int `toml:"max_pending"`
	TransformTimeout int `toml:"transform_timeout"`
}

// Transform selects and tunes the background removal engine.
type Transform struct {
	Engine         string  `toml:"engine"`
	Endpoint       string  `toml:"endpoint"`
	WorkingSize    int     `toml:"working_size"`
	Tolerance      float64 `toml:"tolerance"`
	Softness       float64 `toml:"softness"`
	FetchTimeout   int     `toml:"fetch_timeout"`
	MaxSourceBytes int64   `toml:"max_source_bytes"`
	MaxPixels      int64   `toml:"max_pixels"`
}

// Export controls how finished cutouts are written to disk.
type Export struct {
	AutoExport bool `toml:"auto_export"`
	Ledger     bool `toml:"ledger"`
}

// Notifications configures ntfy pushes for queue and error events.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Logging selects the console format, level and how long run logs are kept.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config mirrors config.toml, one struct per table.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Queue         Queue         `toml:"queue"`
	Transform     Transform     `toml:"transform"`
	Export        Export        `toml:"export"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates the state, log and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the IPC socket location inside the state directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "cutout.sock")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "cutout.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "cutout.pid")
}

// LedgerPath returns the SQLite export ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "exports.db")
}

// TransformTimeout returns the per-item transform bound, or zero when disabled.
func (c *Config) TransformTimeout() time.Duration {
	if c.Queue.TransformTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Queue.TransformTimeout) * time.Second
}

// FetchTimeout returns the timeout applied to remote source downloads.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Transform.FetchTimeout) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// ExpandPath resolves a leading "~" to the home directory and returns the
// absolute, cleaned form of p. An empty p stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}

func defaultStateDir() string {
	if base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); base != "" {
		return filepath.Join(base, "cutout")
	}
	return "~/.local/state/cutout"
}
