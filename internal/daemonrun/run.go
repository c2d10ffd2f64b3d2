package daemonrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"cutout/internal/config"
	"cutout/internal/daemon"
	"cutout/internal/export"
	"cutout/internal/ipc"
	"cutout/internal/logging"
	"cutout/internal/notifications"
	"cutout/internal/preflight"
	"cutout/internal/queue"
	"cutout/internal/transform"
	"cutout/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Console receives log output. Nil means stdout.
	Console io.Writer
	// Ready, when set, is invoked once the IPC socket is accepting clients.
	Ready func()
}

// Run starts the cutout daemon and blocks until cmdCtx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("cutout-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Console:     opts.Console,
		FilePath:    logPath,
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("session_id", uuid.NewString()))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	if pruned := logging.PruneLogs(logger, cfg.Paths.LogDir, "cutout-*.log", cfg.Logging.RetentionDays, logPath); pruned > 0 {
		logger.Info("pruned old daemon logs", logging.Int("count", pruned))
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	transformer, err := transform.New(cfg, logger)
	if err != nil {
		logger.Error("create transformer", logging.Error(err))
		return err
	}

	exporter, err := export.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("open exporter: %w", err)
	}

	store := queue.NewStore()
	workflowManager := workflow.NewManager(store, transformer, logger, workflow.WithConfig(cfg))
	notifier := notifications.NewService(cfg)
	registerObservers(workflowManager, cfg, exporter, notifier, logger)

	d, err := daemon.New(cfg, workflowManager, exporter, notifier, logger)
	if err != nil {
		workflowManager.Close()
		_ = exporter.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "stop the other cutout daemon or check paths.state_dir permissions"),
			logging.String(logging.FieldImpact, "no images will be processed"),
		)
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	status := d.Status()
	logger.Info("cutout daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Int("pid", status.PID),
		logging.String("engine", status.Engine),
		logging.String("socket", status.SocketPath),
		logging.String("api_address", status.APIAddress),
		logging.String("log_path", logPath),
	)
	if opts.Ready != nil {
		opts.Ready()
	}

	<-signalCtx.Done()
	logger.Info("cutout daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_stopping"))
	return nil
}

func registerObservers(mgr *workflow.Manager, cfg *config.Config, exporter *export.Exporter, notifier notifications.Service, logger *slog.Logger) {
	if mgr == nil || cfg == nil {
		return
	}
	mgr.Subscribe(notifications.NewObserver(notifier, func(id string) (string, bool) {
		item, ok := mgr.Item(id)
		if !ok {
			return "", false
		}
		return item.Name, true
	}, logger))
	if cfg.Export.AutoExport && exporter != nil {
		mgr.Subscribe(export.NewAutoExporter(exporter, mgr.Result))
	}
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `cutout check` for the full report"),
			logging.String(logging.FieldImpact, "items may fail until the check passes"),
		)
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
