// Package daemonctl starts, stops and inspects the cutout daemon from the CLI
// by way of its IPC socket and pid file.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cutout/internal/api"
	"cutout/internal/config"
	"cutout/internal/ipc"
)

const pollInterval = 200 * time.Millisecond

// ErrDaemonNotRunning is returned by Stop when nothing answers on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions are forwarded to the detached `cutout daemon` process.
type LaunchOptions struct {
	ConfigPath string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

type StartResult struct {
	State StartState
	PID   int
}

type StopResult struct {
	PID        int
	ForcedKill bool
}

// Launch runs `<executable> daemon` in a new session and does not wait for it.
func Launch(executable string, opts LaunchOptions) error {
	if strings.TrimSpace(executable) == "" {
		return errors.New("resolve executable: executable path is empty")
	}
	args := []string{"daemon"}
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	proc := exec.Command(executable, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// probe dials socketPath and asks for status. ok is false when no daemon is
// listening; other dial failures are returned as errors.
func probe(socketPath string) (status *ipc.StatusResponse, ok bool, err error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer client.Close()
	status, err = client.Status()
	return status, true, err
}

// poll calls cond every pollInterval until it reports true or timeout elapses.
func poll(timeout time.Duration, cond func() bool) bool {
	for deadline := time.Now().Add(timeout); ; {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// WaitForClient returns a connected client once the daemon socket accepts.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	var (
		client  *ipc.Client
		lastErr = errors.New("timeout waiting for daemon")
	)
	connected := poll(timeout, func() bool {
		c, err := ipc.Dial(socketPath)
		if err != nil {
			lastErr = err
			return false
		}
		client = c
		return true
	})
	if !connected {
		return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
	}
	return client, nil
}

// WaitForShutdown returns nil once nothing answers on socketPath.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	gone := poll(timeout, func() bool {
		_, ok, err := probe(socketPath)
		return !ok && err == nil
	})
	if !gone {
		return fmt.Errorf("daemon did not stop within %s", timeout)
	}
	return nil
}

// ProcessInfo reports whether a daemon answers on socketPath and its pid.
func ProcessInfo(socketPath string) (bool, int, error) {
	status, ok, err := probe(socketPath)
	if !ok || err != nil || status == nil {
		return ok, 0, err
	}
	return true, status.PID, nil
}

// EnsureStarted launches the daemon unless one already answers on socketPath.
func EnsureStarted(socketPath, executable string, opts LaunchOptions, timeout time.Duration) (StartResult, error) {
	alive, pid, err := ProcessInfo(socketPath)
	if alive {
		return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
	}
	if err != nil {
		return StartResult{}, err
	}
	if err := Launch(executable, opts); err != nil {
		return StartResult{}, err
	}
	client, err := WaitForClient(socketPath, timeout)
	if err != nil {
		return StartResult{}, err
	}
	defer client.Close()
	result := StartResult{State: StartStateStarted}
	if status, err := client.Status(); err == nil && status != nil {
		result.PID = status.PID
	}
	return result, nil
}

// Stop asks the daemon to exit with SIGTERM and kills it when it is still
// answering after grace.
func Stop(socketPath string, cfg *config.Config, grace time.Duration) (StopResult, error) {
	if cfg == nil {
		return StopResult{}, errors.New("configuration not available")
	}
	alive, pid, err := ProcessInfo(socketPath)
	switch {
	case err != nil:
		return StopResult{}, err
	case !alive:
		return StopResult{}, ErrDaemonNotRunning
	case pid <= 0:
		if pid, err = readPIDFile(cfg.PIDPath()); err != nil {
			return StopResult{}, err
		}
	}
	if err := signalProcess(pid, syscall.SIGTERM); err != nil {
		return StopResult{}, err
	}
	if WaitForShutdown(socketPath, grace) == nil {
		return StopResult{PID: pid}, nil
	}
	if err := ForceKillProcess(cfg, pid); err != nil {
		return StopResult{PID: pid}, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	_ = os.Remove(socketPath)
	return StopResult{PID: pid, ForcedKill: true}, nil
}

// ForceKillProcess sends SIGKILL to pid and clears the pid and lock files it
// can no longer release itself.
func ForceKillProcess(cfg *config.Config, pid int) error {
	if err := signalProcess(pid, syscall.SIGKILL); err != nil {
		return err
	}
	for _, path := range []string{cfg.PIDPath(), cfg.LockPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}

func signalProcess(pid int, sig syscall.Signal) error {
	switch {
	case pid <= 0:
		return errors.New("unable to determine daemon pid")
	case pid == os.Getpid():
		return fmt.Errorf("refusing to signal own process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err == nil {
		err = proc.Signal(sig)
	}
	if err != nil {
		return fmt.Errorf("signal daemon pid %d: %w", pid, err)
	}
	return nil
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s does not hold a pid", path)
	}
	return pid, nil
}

// BuildStatusSnapshot returns the live daemon status, or an offline status
// assembled from cfg when nothing answers on socketPath.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*ipc.StatusResponse, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	status, ok, err := probe(socketPath)
	if ok && err == nil && status != nil {
		return status, nil
	}
	if !ok && err != nil {
		return nil, err
	}

	offline := api.DaemonStatus{
		Engine:       cfg.Transform.Engine,
		LockFilePath: cfg.LockPath(),
		SocketPath:   socketPath,
	}
	if cfg.Export.Ledger {
		offline.LedgerPath = cfg.LedgerPath()
	}
	return &ipc.StatusResponse{DaemonStatus: offline}, nil
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
