package workflow

import "cutout/internal/queue"

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool
	LastError string
	LastItem  *queue.Item
	State     State
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := StatusSummary{Running: m.running, State: m.stateLocked()}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastItem != nil {
		copied := *m.lastItem
		summary.LastItem = &copied
	}
	return summary
}

// Snapshot returns the current counts and running flag.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Running reports whether the loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Items returns the queue in submission order.
func (m *Manager) Items() []queue.Item { return m.store.Items() }

// Results returns completed results in completion order.
func (m *Manager) Results() []queue.Result { return m.store.Results() }

// Item looks up a queued item.
func (m *Manager) Item(id string) (queue.Item, bool) { return m.store.Item(id) }

// Result looks up a completed result.
func (m *Manager) Result(id string) (queue.Result, bool) { return m.store.Result(id) }
