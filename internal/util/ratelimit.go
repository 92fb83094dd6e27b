package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces calls out to at most perMinute per minute using a
// single-token bucket: the first call goes through immediately and each
// subsequent call waits for the bucket to refill.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration // time to refill one token
	tokens   float64
	last     time.Time
}

// NewRateLimiter creates a limiter allowing perMinute calls per minute.
// Values below 1 are treated as 1.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		interval: time.Minute / time.Duration(perMinute),
		tokens:   1,
		last:     time.Now(),
	}
}

// Wait blocks until the caller may proceed or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	rl.tokens += float64(now.Sub(rl.last)) / float64(rl.interval)
	if rl.tokens > 1 {
		rl.tokens = 1
	}
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		rl.mu.Unlock()
		return nil
	}

	// The exact shortfall is known, so sleep once instead of polling.
	wait := time.Duration((1 - rl.tokens) * float64(rl.interval))
	rl.tokens = 0
	rl.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
