package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket allows bursts of up to capacity requests and refills at rate
// tokens per second.
type TokenBucket struct {
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
	mutex    sync.Mutex
}

// NewTokenBucket creates a bucket that starts full.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return newTokenBucket(rate, capacity, time.Now)
}

func newTokenBucket(rate float64, capacity int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     now(),
		now:      now,
	}
}

// Allow refills the bucket for the time elapsed since the last call and
// consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := tb.now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// full reports whether the bucket has refilled completely, meaning it holds
// no state worth keeping.
func (tb *TokenBucket) full() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.tokens+tb.now().Sub(tb.last).Seconds()*tb.rate >= tb.capacity
}
