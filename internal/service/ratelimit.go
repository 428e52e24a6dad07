package service

import (
	"sync"
	"time"
)

// TokenBucket throttles attempts per key (login email). It is safe for
// concurrent use; idle buckets are swept lazily on Allow.
type TokenBucket struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64 // tokens added per second
	capacity  float64
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

const (
	bucketIdleTTL = 10 * time.Minute
	sweepEvery    = 5 * time.Minute
)

// NewTokenBucket allows bursts of capacity per key, refilling at rate tokens
// per second.
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	return &TokenBucket{
		buckets:   make(map[string]*bucket),
		rate:      rate,
		capacity:  capacity,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

// Allow consumes one token for key and reports whether one was available.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if now.Sub(tb.lastSweep) >= sweepEvery {
		tb.sweep(now)
	}

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Len reports how many keys are currently tracked.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

func (tb *TokenBucket) sweep(now time.Time) {
	cutoff := now.Add(-bucketIdleTTL)
	for key, b := range tb.buckets {
		if b.last.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
	tb.lastSweep = now
}
