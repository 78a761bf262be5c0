package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle is a process-wide token bucket over all outbound HTTP calls,
// independent of the per-source windows. It keeps a burst of failing bots
// from hammering the network as a whole.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle admitting rps requests per second with the
// given burst capacity.
func NewThrottle(rps float64, burst int) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Allow reports whether a token is available right now, consuming it if so.
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}
