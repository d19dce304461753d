package mcp

import (
	"sync"
	"time"
)

// tokenBucket implements per-user token-bucket rate limiting: bursts up to
// capacity, smooth refill over the window, no thundering herd at window
// boundaries.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// allow consumes a token when available and reports the wait until the
// next token otherwise.
func (tb *tokenBucket) allow() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, 0
	}

	wait := time.Duration((1.0 - tb.tokens) / tb.refillRate * float64(time.Second))
	return false, wait
}

// RateLimiter tracks a bucket per authenticated user.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	capacity   int
	refillRate float64
}

// NewRateLimiter builds a limiter allowing perMinute sustained requests
// with the given burst capacity.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	return &RateLimiter{
		buckets:    map[string]*tokenBucket{},
		capacity:   burst,
		refillRate: float64(perMinute) / 60.0,
	}
}

// Allow consumes one token for the user; retryAfter is meaningful only
// when allowed is false.
func (rl *RateLimiter) Allow(userID string) (allowed bool, retryAfter time.Duration) {
	rl.mu.Lock()
	bucket, ok := rl.buckets[userID]
	if !ok {
		bucket = newTokenBucket(rl.capacity, rl.refillRate)
		rl.buckets[userID] = bucket
	}
	rl.mu.Unlock()

	return bucket.allow()
}
