package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket that keeps a provider under the upstream
// free-tier request quota.
type RateLimiter struct {
	mu             sync.Mutex
	tokens         int
	maxTokens      int
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time
}

// NewRateLimiter allows a burst of maxTokens and regains one token per refillInterval.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillInterval <= 0 {
		refillInterval = time.Millisecond
	}
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the number of tokens left after refilling.
func (r *RateLimiter) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// take consumes a token, or reports how long until the next one is due.
func (r *RateLimiter) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens > 0 {
		r.tokens--
		return 0, true
	}
	return r.refillInterval - r.now().Sub(r.lastRefill), false
}

func (r *RateLimiter) refill() {
	elapsed := r.now().Sub(r.lastRefill)
	newTokens := int(elapsed / r.refillInterval)
	if newTokens <= 0 {
		return
	}
	r.tokens = min(r.tokens+newTokens, r.maxTokens)
	r.lastRefill = r.lastRefill.Add(time.Duration(newTokens) * r.refillInterval)
}
