package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

// Slot keeps values in process memory. Nothing survives a restart.
type Slot struct {
	mu      sync.RWMutex
	values  map[string][]byte
	writes  int
	failErr error
	readErr error
}

// New creates an empty memory slot.
func New() *Slot {
	return &Slot{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readErr != nil {
		return nil, s.readErr
	}
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, slot.ErrSlotNotFound)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value, or returns the injected failure.
func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return s.failErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	s.writes++
	return nil
}

// Ping always succeeds.
func (s *Slot) Ping(ctx context.Context) error { return nil }

// FailWrites makes every following Set return err. Pass nil to recover.
func (s *Slot) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failErr = err
}

// FailReads makes every following Get return err. Pass nil to recover.
func (s *Slot) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readErr = err
}

// Names returns the stored keys, sorted.
func (s *Slot) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	slices.Sort(names)
	return names, nil
}

// Writes returns the number of successful Set calls.
func (s *Slot) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writes
}
