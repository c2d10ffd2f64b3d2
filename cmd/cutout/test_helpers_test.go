package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cutout/internal/config"
	"cutout/internal/daemon"
	"cutout/internal/export"
	"cutout/internal/ipc"
	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/testsupport"
	"cutout/internal/workflow"
)

// cliEnv is a temp config on disk, optionally with an in-process daemon
// serving its socket.
type cliEnv struct {
	t          *testing.T
	cfg        *config.Config
	configPath string
	baseDir    string

	daemon *daemon.Daemon
	stub   *testsupport.StubTransformer
}

// newOfflineEnv writes a config file but starts no daemon.
func newOfflineEnv(t *testing.T) *cliEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	env := &cliEnv{t: t, cfg: cfg, baseDir: base, configPath: filepath.Join(base, "config.toml")}
	env.saveConfig()
	return env
}

// newDaemonEnv is newOfflineEnv plus a running daemon with a stub engine and
// the IPC server listening on the config's socket.
func newDaemonEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := newOfflineEnv(t)
	t.Setenv("HOME", filepath.Join(env.baseDir, "home"))

	logger := logging.NewNop()
	env.stub = &testsupport.StubTransformer{}
	mgr := workflow.NewManager(queue.NewStore(), env.stub, logger, workflow.WithConfig(env.cfg))
	exporter, err := export.NewFromConfig(env.cfg, logger)
	if err != nil {
		t.Fatalf("export.NewFromConfig: %v", err)
	}
	if env.daemon, err = daemon.New(env.cfg, mgr, exporter, nil, logger); err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = env.daemon.Close()
	})
	if err := env.daemon.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, env.cfg.SocketPath(), env.daemon, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	return env
}

func (e *cliEnv) saveConfig() {
	e.t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		e.t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		e.t.Fatalf("write config: %v", err)
	}
}

// run executes the CLI against this env's config and socket.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	return execCLI(append([]string{"--socket", e.cfg.SocketPath(), "--config", e.configPath}, args...)...)
}

func execCLI(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func waitFor(t *testing.T, limit time.Duration, cond func() bool) {
	t.Helper()
	for deadline := time.Now().Add(limit); time.Now().Before(deadline); time.Sleep(10 * time.Millisecond) {
		if cond() {
			return
		}
	}
	t.Fatalf("condition not met within %s", limit)
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("output does not contain %q:\n%s", want, got)
	}
}
