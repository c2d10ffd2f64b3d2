package workflow

import (
	"fmt"
	"log/slog"
	"sync"

	"cutout/internal/logging"
)

// dispatcher delivers events to observers in order on its own goroutine.
// Publishing never blocks; the backlog is unbounded.
type dispatcher struct {
	mu        sync.Mutex
	cond      *sync.Cond
	pending   []Event
	observers []Observer
	closed    bool
	done      chan struct{}
	logger    *slog.Logger
}

func newDispatcher(logger *slog.Logger, observers []Observer) *dispatcher {
	d := &dispatcher{
		observers: append([]Observer(nil), observers...),
		done:      make(chan struct{}),
		logger:    logger,
	}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

func (d *dispatcher) subscribe(obs Observer) {
	if obs == nil {
		return
	}
	d.mu.Lock()
	d.observers = append(d.observers, obs)
	d.mu.Unlock()
}

func (d *dispatcher) publish(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = append(d.pending, e)
	d.cond.Signal()
}

// close stops accepting events, delivers the backlog and waits for the loop.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.done
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.pending) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.pending) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		batch := d.pending
		d.pending = nil
		observers := append([]Observer(nil), d.observers...)
		d.mu.Unlock()

		for _, e := range batch {
			for _, obs := range observers {
				d.deliver(obs, e)
			}
		}
	}
}

func (d *dispatcher) deliver(obs Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(d.logger, "observer panicked; event dropped for that observer", "observer_panic",
				logging.String("event", string(e.Kind)),
				logging.String(logging.FieldItemID, e.ItemID),
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldImpact, "one observer missed one event"),
			)
		}
	}()
	obs.Observe(e)
}
