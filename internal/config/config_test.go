package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cutout/internal/config"
)

// isolateEnv clears cutout variables for the duration of the test and restores them afterwards.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CUTOUT_TRANSFORM_ENDPOINT", "CUTOUT_API_TOKEN", "CUTOUT_NTFY_TOPIC", "XDG_STATE_HOME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	isolateEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "state", "cutout")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "Pictures", "cutout") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7491" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Transform.Engine != config.EngineLocal {
		t.Fatalf("expected local engine by default, got %q", cfg.Transform.Engine)
	}
	if cfg.Transform.WorkingSize != 1024 {
		t.Fatalf("unexpected working size: %d", cfg.Transform.WorkingSize)
	}
	if cfg.Queue.MaxPending != 0 || cfg.TransformTimeout() != 0 {
		t.Fatalf("expected queue bounds disabled by default, got %+v", cfg.Queue)
	}
	if cfg.SocketPath() != filepath.Join(wantState, "cutout.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cutout.toml")

	type payload struct {
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Queue struct {
			MaxPending       int `toml:"max_pending"`
			TransformTimeout int `toml:"transform_timeout"`
		} `toml:"queue"`
		Transform struct {
			Engine   string `toml:"engine"`
			Endpoint string `toml:"endpoint"`
		} `toml:"transform"`
	}
	custom := payload{}
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Queue.MaxPending = 5
	custom.Queue.TransformTimeout = 90
	custom.Transform.Engine = "Remote"
	custom.Transform.Endpoint = "http://127.0.0.1:7000/api/remove"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.StateDir != filepath.Join(tempDir, "state") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.Transform.Engine != config.EngineRemote {
		t.Fatalf("expected engine to normalize to remote, got %q", cfg.Transform.Engine)
	}
	if cfg.Queue.MaxPending != 5 {
		t.Fatalf("expected max_pending 5, got %d", cfg.Queue.MaxPending)
	}
	if cfg.TransformTimeout() != 90*time.Second {
		t.Fatalf("expected 90s transform timeout, got %s", cfg.TransformTimeout())
	}
}

func TestEnvFallbacksFillEmptyValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CUTOUT_API_TOKEN", "env-token")
	t.Setenv("CUTOUT_NTFY_TOPIC", "https://ntfy.sh/cutout")
	t.Setenv("CUTOUT_TRANSFORM_ENDPOINT", "http://inference.local/remove")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "env-token" {
		t.Errorf("expected API token from env, got %q", cfg.Paths.APIToken)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/cutout" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Transform.Endpoint != "http://inference.local/remove" {
		t.Errorf("expected endpoint from env, got %q", cfg.Transform.Endpoint)
	}
}

func TestDotEnvFileIsLoaded(t *testing.T) {
	isolateEnv(t)
	t.Setenv("HOME", t.TempDir())
	if err := os.WriteFile(".env", []byte("CUTOUT_API_TOKEN=dotenv-token\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CUTOUT_API_TOKEN") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "dotenv-token" {
		t.Fatalf("expected token from .env, got %q", cfg.Paths.APIToken)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_topic_here") {
		t.Fatalf("sample config missing placeholder ntfy topic: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "cutout") {
		t.Fatalf("expected state dir to contain cutout, got %q", cfg.Paths.StateDir)
	}
	if cfg.Transform.WorkingSize != 1024 {
		t.Fatalf("unexpected sample working size %d", cfg.Transform.WorkingSize)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown engine", func(c *config.Config) { c.Transform.Engine = "magic" }},
		{"remote without endpoint", func(c *config.Config) { c.Transform.Engine = config.EngineRemote }},
		{"remote with bad endpoint", func(c *config.Config) {
			c.Transform.Engine = config.EngineRemote
			c.Transform.Endpoint = "ftp://host/remove"
		}},
		{"zero working size", func(c *config.Config) { c.Transform.WorkingSize = 0 }},
		{"tolerance out of range", func(c *config.Config) { c.Transform.Tolerance = 1.5 }},
		{"negative softness", func(c *config.Config) { c.Transform.Softness = -0.1 }},
		{"zero max pixels", func(c *config.Config) { c.Transform.MaxPixels = 0 }},
		{"zero notification timeout", func(c *config.Config) { c.Notifications.RequestTimeout = 0 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"empty output dir", func(c *config.Config) { c.Paths.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
