package workflow

import (
	"time"

	"cutout/internal/queue"
)

// EventKind names a store mutation or controller transition.
type EventKind string

const (
	EventSubmitted     EventKind = "submitted"
	EventStarted       EventKind = "started"
	EventStatusChanged EventKind = "status_changed"
	EventCompleted     EventKind = "completed"
	EventFailed        EventKind = "failed"
	EventRemoved       EventKind = "removed"
	EventResultRemoved EventKind = "result_removed"
	EventDrained       EventKind = "drained"
	EventCleared       EventKind = "cleared"
)

// Event describes one change. ItemID is empty for global events (started,
// drained, cleared). State is the controller view right after the change.
type Event struct {
	Kind   EventKind
	ItemID string
	Detail string
	State  State
	Time   time.Time
}

// Observer receives events in emission order from a single goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// State is the derived, read-only view of the controller and its store.
type State struct {
	queue.Snapshot
	Running bool `json:"running"`
}
