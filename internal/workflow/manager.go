package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cutout/internal/config"
	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/transform"
)

// Manager serializes transforms over the queue store.
type Manager struct {
	store       *queue.Store
	transformer transform.Transformer
	logger      *slog.Logger
	events      *dispatcher

	maxPending int
	timeout    time.Duration
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	running  bool
	closed   bool
	lastErr  error
	lastItem *queue.Item
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	observers  []Observer
	maxPending int
	timeout    time.Duration
}

// WithObserver registers an observer before the first event can fire.
func WithObserver(obs Observer) ManagerOption {
	return func(o *managerOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithMaxPending rejects submissions once n items are pending. Zero disables the bound.
func WithMaxPending(n int) ManagerOption {
	return func(o *managerOptions) { o.maxPending = max(n, 0) }
}

// WithTransformTimeout bounds each transform call. Zero disables the bound.
func WithTransformTimeout(d time.Duration) ManagerOption {
	return func(o *managerOptions) { o.timeout = max(d, 0) }
}

// WithConfig applies the [queue] section of cfg.
func WithConfig(cfg *config.Config) ManagerOption {
	return func(o *managerOptions) {
		if cfg == nil {
			return
		}
		o.maxPending = max(cfg.Queue.MaxPending, 0)
		o.timeout = cfg.TransformTimeout()
	}
}

// NewManager constructs an idle manager. Call Close to stop it.
func NewManager(store *queue.Store, transformer transform.Transformer, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if store == nil {
		store = queue.NewStore()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:       store,
		transformer: transformer,
		logger:      logger,
		events:      newDispatcher(logger, options.observers),
		maxPending:  options.maxPending,
		timeout:     options.timeout,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Subscribe adds an observer. Events already emitted are not replayed.
func (m *Manager) Subscribe(obs Observer) {
	m.events.subscribe(obs)
}

// Submit validates and enqueues an image, starting the loop when idle.
// Validation failures and a full queue are returned synchronously; transform
// failures never are.
func (m *Manager) Submit(ctx context.Context, d queue.Descriptor) (queue.Item, error) {
	if err := ctx.Err(); err != nil {
		return queue.Item{}, err
	}
	if err := d.Validate(); err != nil {
		return queue.Item{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return queue.Item{}, ErrClosed
	}
	if m.maxPending > 0 && m.store.PendingCount() >= m.maxPending {
		return queue.Item{}, ErrQueueFull
	}
	item, err := m.store.Enqueue(d)
	if err != nil {
		return queue.Item{}, err
	}
	m.emitLocked(EventSubmitted, item.ID, "")
	logging.WithContext(ctx, m.logger).Info("image queued",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("name", item.Name),
		logging.String("source", item.Source.Kind()),
		logging.Int64("size_bytes", item.SizeBytes),
		logging.String(logging.FieldEventType, "item_submitted"),
	)
	m.startLocked()
	return item, nil
}

// Remove deletes an item in any status. Removing the item currently being
// transformed discards its eventual outcome.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.store.Remove(id) {
		return false
	}
	m.emitLocked(EventRemoved, id, "")
	m.logger.Info("item removed", logging.String(logging.FieldItemID, id), logging.String(logging.FieldEventType, "item_removed"))
	return true
}

// RemoveResult deletes a completed result.
func (m *Manager) RemoveResult(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.store.RemoveResult(id) {
		return false
	}
	m.emitLocked(EventResultRemoved, id, "")
	m.logger.Info("result removed", logging.String(logging.FieldItemID, id), logging.String(logging.FieldEventType, "result_removed"))
	return true
}

// ClearAll empties the queue and results and returns the counts it removed.
// It refuses while the loop runs.
func (m *Manager) ClearAll() (queue.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return queue.Snapshot{}, ErrQueueBusy
	}
	cleared := m.store.Snapshot()
	m.store.Clear()
	m.emitLocked(EventCleared, "", "")
	m.logger.Info("queue cleared",
		logging.Int("items", cleared.Total),
		logging.Int("results", cleared.Completed),
		logging.String(logging.FieldEventType, "queue_cleared"),
	)
	return cleared, nil
}

// Close stops the loop, waits for it and flushes pending events. A transform
// interrupted by Close is not recorded as a failure.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.events.close()
}

// startLocked launches the loop when idle. Callers hold m.mu.
func (m *Manager) startLocked() {
	if m.running || m.closed {
		return
	}
	m.running = true
	m.wg.Add(1)
	m.emitLocked(EventStarted, "", "")
	go m.run()
}

// emitLocked publishes an event with the state as of now. Callers hold m.mu.
func (m *Manager) emitLocked(kind EventKind, itemID, detail string) {
	m.events.publish(Event{
		Kind:   kind,
		ItemID: itemID,
		Detail: detail,
		State:  m.stateLocked(),
		Time:   m.now().UTC(),
	})
}

func (m *Manager) stateLocked() State {
	return State{Snapshot: m.store.Snapshot(), Running: m.running}
}
