package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDPrefix starts every item identifier.
const IDPrefix = "img_"

// Store is the in-memory registry of queue items and completed results.
type Store struct {
	mu      sync.RWMutex
	items   []Item
	results []Result
	now     func() time.Time
	newID   func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:   time.Now,
		newID: func() string { return IDPrefix + uuid.NewString() },
	}
}

// Enqueue validates d, assigns a fresh id and appends the item in FIFO order.
func (s *Store) Enqueue(d Descriptor) (Item, error) {
	if err := d.Validate(); err != nil {
		return Item{}, err
	}
	item := Item{
		ID:          s.newID(),
		Source:      d.source(),
		Name:        d.displayName(),
		SizeBytes:   d.sizeBytes(),
		Status:      StatusPending,
		SubmittedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item, nil
}

// NextPending returns the first pending item without changing it.
func (s *Store) NextPending() (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Status == StatusPending {
			return item, true
		}
	}
	return Item{}, false
}

// MarkProcessing moves a pending item to processing.
func (s *Store) MarkProcessing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 || s.items[idx].Status != StatusPending {
		return false
	}
	s.items[idx].Status = StatusProcessing
	return true
}

// MarkDone removes a processing item from the queue and appends its result.
func (s *Store) MarkDone(id string, result Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 || s.items[idx].Status != StatusProcessing {
		return false
	}
	item := s.items[idx]
	result.ID = item.ID
	if result.Name == "" {
		result.Name = item.Name
	}
	result.Source = item.Source
	result.SubmittedAt = item.SubmittedAt
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now().UTC()
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.results = append(s.results, result)
	return true
}

// MarkError records a terminal failure in place. The item stays queryable but
// is never dequeued again.
func (s *Store) MarkError(id, detail string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 || s.items[idx].Status != StatusProcessing {
		return false
	}
	if detail == "" {
		detail = "transform failed"
	}
	s.items[idx].Status = StatusError
	s.items[idx].ErrorDetail = detail
	return true
}

// Remove deletes an item regardless of status.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return true
}

// RemoveResult deletes a completed result.
func (s *Store) RemoveResult(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.results {
		if s.results[i].ID == id {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties both collections unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.results = nil
	s.mu.Unlock()
}

// Snapshot counts items by status plus the number of results.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Total: len(s.items), Completed: len(s.results)}
	for _, item := range s.items {
		switch item.Status {
		case StatusPending:
			snap.Pending++
		case StatusProcessing:
			snap.Processing++
		case StatusError:
			snap.Failed++
		}
	}
	return snap
}

// PendingCount returns the number of items waiting to be processed.
func (s *Store) PendingCount() int {
	return s.Snapshot().Pending
}

// Items returns a copy of the queue in submission order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Results returns a copy of the results in completion order.
func (s *Store) Results() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Item looks up a queued item by id.
func (s *Store) Item(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return Item{}, false
	}
	return s.items[idx], true
}

// Result looks up a completed result by id.
func (s *Store) Result(id string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, result := range s.results {
		if result.ID == id {
			return result, true
		}
	}
	return Result{}, false
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
