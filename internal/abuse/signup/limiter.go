// Package signup caps account-creation attempts per IP for the life of the
// process. The counters are deliberately coarse: in-memory, never windowed,
// reset only by restart.
package signup

import (
	"sync"
	"sync/atomic"
)

// Limiter tracks per-IP account-creation attempts with atomic counters so
// concurrent requests never lose an increment. It is an injected value, not
// package state, so tests get a fresh one per case.
type Limiter struct {
	max      int64
	counters sync.Map // ip -> *atomic.Int64
}

func NewLimiter(max int) *Limiter {
	return &Limiter{max: int64(max)}
}

// Allow increments the counter for ip and reports whether the post-increment
// count is still within the cap. Once an IP runs over, every later call
// returns false for the life of the process.
func (l *Limiter) Allow(ip string) bool {
	counter, _ := l.counters.LoadOrStore(ip, new(atomic.Int64))
	return counter.(*atomic.Int64).Add(1) <= l.max
}
