package lockout

import (
	"context"
	"sync"
	"time"
)

// InMemory is the mutex-guarded failure counter store for tests/dev.
type InMemory struct {
	mu      sync.Mutex
	window  time.Duration
	records map[string]*Record
}

// NewInMemory constructs an empty in-memory lockout store. The window is
// needed to reset stale counters on the next failure.
func NewInMemory(window time.Duration) *InMemory {
	return &InMemory{window: window, records: make(map[string]*Record)}
}

func (s *InMemory) Get(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *InMemory) RecordFailure(_ context.Context, key string, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok || now.Sub(record.WindowStart) >= s.window {
		record = &Record{Key: key, WindowStart: now}
		s.records[key] = record
	}
	record.Failures++
	record.LastFailureAt = now
	copied := *record
	return &copied, nil
}

func (s *InMemory) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
