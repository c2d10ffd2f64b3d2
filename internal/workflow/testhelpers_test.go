package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cutout/internal/queue"
	"cutout/internal/testsupport"
	"cutout/internal/transform"
	"cutout/internal/workflow"
)

const waitTimeout = 5 * time.Second

type recorder struct {
	mu     sync.Mutex
	events []workflow.Event
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 1)}
}

func (r *recorder) Observe(e workflow.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recorder) snapshot() []workflow.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workflow.Event(nil), r.events...)
}

func (r *recorder) count(kind workflow.EventKind) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) forItem(id string) []workflow.EventKind {
	var kinds []workflow.EventKind
	for _, e := range r.snapshot() {
		if e.ItemID == id {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// waitFor blocks until at least n events of kind have been observed.
func (r *recorder) waitFor(t *testing.T, kind workflow.EventKind, n int) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for r.count(kind) < n {
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d %q events; saw %v", n, kind, kinds(r.snapshot()))
		}
	}
}

func kinds(events []workflow.Event) []workflow.EventKind {
	out := make([]workflow.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func newManager(t *testing.T, engine transform.Transformer, opts ...workflow.ManagerOption) (*workflow.Manager, *queue.Store, *recorder) {
	t.Helper()
	store := queue.NewStore()
	rec := newRecorder()
	opts = append([]workflow.ManagerOption{workflow.WithObserver(rec)}, opts...)
	mgr := workflow.NewManager(store, engine, nil, opts...)
	t.Cleanup(mgr.Close)
	return mgr, store, rec
}

func submit(t *testing.T, mgr *workflow.Manager, name string) queue.Item {
	t.Helper()
	item, err := mgr.Submit(context.Background(), queue.Descriptor{Name: name, Data: []byte(name)})
	if err != nil {
		t.Fatalf("Submit(%q): %v", name, err)
	}
	return item
}

// gate blocks transforms until opened and reports each call's name as it starts.
type gate struct {
	open    chan struct{}
	started chan string
	once    sync.Once
}

func newGate() *gate {
	return &gate{open: make(chan struct{}), started: make(chan string, 64)}
}

func (g *gate) hook(ctx context.Context, src queue.Source) error {
	g.started <- string(src.Data)
	select {
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) release() { g.once.Do(func() { close(g.open) }) }

func (g *gate) waitStarted(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		if got != want {
			t.Fatalf("transform started for %q, want %q", got, want)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("transform for %q never started", want)
	}
}

var _ transform.Transformer = (*testsupport.StubTransformer)(nil)
