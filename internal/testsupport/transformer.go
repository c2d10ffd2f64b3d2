package testsupport

import (
	"context"
	"sync"

	"cutout/internal/queue"
	"cutout/internal/transform"
)

// StubTransformer records calls and returns a fixed-size output unless Hook
// overrides the behaviour for a source.
type StubTransformer struct {
	// Hook, when set, runs for every call. A non-nil error fails the item.
	Hook func(ctx context.Context, src queue.Source) error

	mu       sync.Mutex
	calls    []queue.Source
	inflight int
	maxSeen  int
}

// Transform implements transform.Transformer.
func (s *StubTransformer) Transform(ctx context.Context, src queue.Source) (transform.Output, error) {
	s.mu.Lock()
	s.calls = append(s.calls, src)
	s.inflight++
	s.maxSeen = max(s.maxSeen, s.inflight)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	if s.Hook != nil {
		if err := s.Hook(ctx, src); err != nil {
			return transform.Output{}, err
		}
	}
	mask, cutout := SolidOutputImages(2, 2)
	return transform.Output{Mask: mask, Cutout: cutout, Width: 2, Height: 2}, nil
}

// Calls returns the sources passed so far, in call order.
func (s *StubTransformer) Calls() []queue.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]queue.Source(nil), s.calls...)
}

// MaxConcurrent reports the highest number of simultaneous calls observed.
func (s *StubTransformer) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}
