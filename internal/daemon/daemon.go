package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cutout/internal/config"
	"cutout/internal/export"
	"cutout/internal/logging"
	"cutout/internal/notifications"
	"cutout/internal/queue"
	"cutout/internal/services"
	"cutout/internal/workflow"
)

// Daemon owns the workflow manager for the lifetime of the process and
// enforces single-instance execution per state directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	workflow *workflow.Manager
	exporter *export.Exporter
	notifier notifications.Service
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Engine       string
	Workflow     workflow.StatusSummary
	LockFilePath string
	SocketPath   string
	LedgerPath   string
	APIAddress   string
}

// New constructs a daemon with initialized dependencies. exporter and
// notifier may be nil.
func New(cfg *config.Config, wf *workflow.Manager, exporter *export.Exporter, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || wf == nil {
		return nil, errors.New("daemon requires config and workflow manager")
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		workflow: wf,
		exporter: exporter,
		notifier: notifier,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cutout daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("cutout daemon started",
		logging.String("lock", d.lockPath),
		logging.String("engine", d.cfg.Transform.Engine),
	)
	return nil
}

// Stop stops the HTTP API and releases the daemon lock. Queued work is kept.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.String("lock", d.lockPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("cutout daemon stopped")
}

// Close stops the daemon, abandons in-flight work and releases the exporter.
func (d *Daemon) Close() error {
	d.Stop()
	d.workflow.Close()
	if d.exporter != nil {
		return d.exporter.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Engine:       d.cfg.Transform.Engine,
		Workflow:     d.workflow.Status(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		APIAddress:   d.api.address(),
	}
	if d.exporter != nil && d.exporter.Ledger() != nil {
		status.LedgerPath = d.exporter.Ledger().Path()
	}
	return status
}

// Submit enqueues one image.
func (d *Daemon) Submit(ctx context.Context, desc queue.Descriptor) (queue.Item, error) {
	item, err := d.workflow.Submit(ctx, desc)
	if err != nil {
		if queue.IsInvalidDescriptor(err) {
			d.logger.Debug("submission rejected", logging.String("name", desc.Name), logging.Error(err))
		} else {
			logging.WarnWithContext(d.logger, "submission refused", "submission_refused",
				logging.String("name", desc.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "wait for the queue to drain or raise queue.max_pending"),
				logging.String(logging.FieldImpact, "image was not queued"),
			)
		}
	}
	return item, err
}

// Remove drops a queued item. Returns false when the id is unknown.
func (d *Daemon) Remove(id string) bool {
	return d.workflow.Remove(strings.TrimSpace(id))
}

// RemoveResult drops a completed result. Returns false when the id is unknown.
func (d *Daemon) RemoveResult(id string) bool {
	return d.workflow.RemoveResult(strings.TrimSpace(id))
}

// Clear empties the queue and results when idle and reports the counts that
// were cleared.
func (d *Daemon) Clear() (queue.Snapshot, error) {
	return d.workflow.ClearAll()
}

// Items lists queued items in submission order.
func (d *Daemon) Items() []queue.Item { return d.workflow.Items() }

// Results lists completed results in completion order.
func (d *Daemon) Results() []queue.Result { return d.workflow.Results() }

// Result looks up one completed result.
func (d *Daemon) Result(id string) (queue.Result, bool) { return d.workflow.Result(id) }

// Export writes the requested results, or every result when all is set.
// Unknown ids are reported in the returned error alongside the records that
// were written.
func (d *Daemon) Export(ctx context.Context, ids []string, all bool) ([]export.Record, error) {
	if d.exporter == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "export", "exporter unavailable", nil)
	}
	if all {
		return d.exporter.ExportAll(ctx, d.workflow.Results())
	}
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "daemon", "export", "no result ids given", nil)
	}
	var (
		results []queue.Result
		missing []error
	)
	for _, id := range ids {
		result, ok := d.workflow.Result(strings.TrimSpace(id))
		if !ok {
			missing = append(missing, services.Wrap(services.ErrNotFound, "daemon", "export", fmt.Sprintf("result %s not found", id), nil))
			continue
		}
		results = append(results, result)
	}
	records, err := d.exporter.ExportAll(ctx, results)
	return records, errors.Join(append(missing, err)...)
}

// ExportHistory lists ledger records, most recent first.
func (d *Daemon) ExportHistory(ctx context.Context, limit int) ([]export.Record, error) {
	if d.exporter == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "history", "exporter unavailable", nil)
	}
	return d.exporter.History(ctx, limit)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
