// Package ratelimit provides the process-wide, per-source sliding-window
// admission controller every outbound fetch must pass through, plus a global
// token-bucket throttle for the HTTP layer.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter tracks request timestamps per source id over a trailing window.
// One instance is shared by all bots; it is the only mutable state shared
// across concurrent bot executions and is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	now  func() time.Time
	poll time.Duration
}

// New creates a limiter with a 1 second retry poll interval.
func New() *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
		poll:    time.Second,
	}
}

// CheckLimit reports, without blocking, whether one more request fits under
// limit within the trailing window for the source, recording the attempt
// atomically if it fits. Entries older than the window are pruned lazily.
func (l *Limiter) CheckLimit(sourceID string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	stamps := l.windows[sourceID]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		l.windows[sourceID] = kept
		return false
	}

	l.windows[sourceID] = append(kept, now)
	return true
}

// WaitForSlot suspends the caller, retrying CheckLimit on a fixed interval
// until a slot is free or the context is done. There is no fairness guarantee
// across callers contending for the same source.
func (l *Limiter) WaitForSlot(ctx context.Context, sourceID string, limit int, window time.Duration) error {
	if l.CheckLimit(sourceID, limit, window) {
		return nil
	}
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.CheckLimit(sourceID, limit, window) {
				return nil
			}
		}
	}
}

// Reset drops all recorded windows. Test isolation helper.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string][]time.Time)
}
