package poeapi

import (
	"context"
	"math"
	"sync"
	"time"
)

// tokenBucket implements the client's request budget: a float bucket
// that accumulates fractional permits over time up to a cap, each
// permit consumed whole. The undisclosed server-side quota is assumed
// to tolerate bursts of 10 with a steady state of 5 requests/second.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	last       time.Time
	clock      func() time.Time
}

func newTokenBucket(maxTokens, refillRate float64) *tokenBucket {
	clock := time.Now
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		last:       clock(),
		clock:      clock,
	}
}

// tryAcquire refills based on elapsed time, then consumes one token if
// a whole one is available. Tokens never go negative and never exceed
// the cap.
func (b *tokenBucket) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

func (b *tokenBucket) refillLocked() {
	now := b.clock()
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = math.Min(b.tokens+elapsed*b.refillRate, b.maxTokens)
	b.last = now
}

// timeUntilAvailable reports how long until a whole token will have
// refilled, given the current level. Zero if one is already available.
func (b *tokenBucket) timeUntilAvailable() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tokens >= 1.0 {
		return 0
	}
	return time.Duration((1.0 - b.tokens) / b.refillRate * float64(time.Second))
}

// wait blocks until a token is acquired or the context is cancelled.
// The lock is held only for the instantaneous acquire/inspect step and
// released before sleeping, so a sleeping caller never blocks others.
// Another caller may consume the token this caller slept for; the loop
// simply recomputes and sleeps again. There is no upper bound: tokens
// always eventually refill.
func (b *tokenBucket) wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refillLocked()
		if b.tokens >= 1.0 {
			b.tokens -= 1.0
			b.mu.Unlock()
			return nil
		}
		sleep := time.Duration((1.0 - b.tokens) / b.refillRate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
