package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"cutout/internal/config"
)

// ConfigOption adjusts a test config before its directories are created.
type ConfigOption func(*config.Config)

// NewConfig returns defaults rooted in a fresh t.TempDir(): state, logs and
// output live in sibling directories, the HTTP API binds an ephemeral port
// and log retention is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Logging.RetentionDays = 0
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithRemoteEngine switches the config to the remote engine at endpoint.
func WithRemoteEngine(endpoint string) ConfigOption {
	return func(c *config.Config) {
		c.Transform.Engine = config.EngineRemote
		c.Transform.Endpoint = endpoint
	}
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(c *config.Config) {
		c.Paths.APIToken = token
	}
}

// WithAutoExport enables exporting every completed result.
func WithAutoExport() ConfigOption {
	return func(c *config.Config) {
		c.Export.AutoExport = true
	}
}

// WithQueueBounds sets the pending limit and per-item timeout.
func WithQueueBounds(maxPending int, timeout time.Duration) ConfigOption {
	return func(c *config.Config) {
		c.Queue.MaxPending = maxPending
		c.Queue.TransformTimeout = int(timeout / time.Second)
	}
}

// WithNtfyTopic points notifications at topic.
func WithNtfyTopic(topic string) ConfigOption {
	return func(c *config.Config) {
		c.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
