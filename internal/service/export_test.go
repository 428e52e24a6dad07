package service

import "time"

// SetClock swaps the bucket's time source for tests.
func (tb *TokenBucket) SetClock(now func() time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.now = now
	tb.lastSweep = now()
}

// SetClock swaps the issuer's time source for tests.
func (ti *TokenIssuer) SetClock(now func() time.Time) {
	ti.now = now
}
