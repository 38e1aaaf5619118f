// Package lockout caps failed verification-code attempts per
// (subject, channel) pair. A 6-digit space with unlimited guesses inside a
// 10-minute window is brute-forceable; the cap closes that hole.
package lockout

import (
	"context"
	"time"
)

// Record tracks failures for one key within a sliding window.
type Record struct {
	Key           string
	Failures      int
	WindowStart   time.Time
	LastFailureAt time.Time
}

// Store persists failure counters. Implementations must make RecordFailure
// atomic so concurrent failures cannot undercount past the threshold.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	RecordFailure(ctx context.Context, key string, now time.Time) (*Record, error)
	Clear(ctx context.Context, key string) error
}

// Policy owns the thresholds; stores stay pure I/O.
type Policy struct {
	store       Store
	maxAttempts int
	window      time.Duration
}

// NewPolicy constructs an attempt policy over the given store.
func NewPolicy(store Store, maxAttempts int, window time.Duration) *Policy {
	return &Policy{store: store, maxAttempts: maxAttempts, window: window}
}

// Allowed reports whether another attempt may proceed for key, and when a
// blocked caller may retry.
func (p *Policy) Allowed(ctx context.Context, key string, now time.Time) (bool, time.Duration, error) {
	record, err := p.store.Get(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if record == nil {
		return true, 0, nil
	}
	if now.Sub(record.WindowStart) >= p.window {
		// Window elapsed; counters are stale.
		return true, 0, nil
	}
	if record.Failures < p.maxAttempts {
		return true, 0, nil
	}
	retryAfter := record.WindowStart.Add(p.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter, nil
}

// RecordFailure counts one failed attempt for key.
func (p *Policy) RecordFailure(ctx context.Context, key string, now time.Time) error {
	_, err := p.store.RecordFailure(ctx, key, now)
	return err
}

// Clear resets the counter after a successful attempt.
func (p *Policy) Clear(ctx context.Context, key string) error {
	return p.store.Clear(ctx, key)
}
