package ratelimiter

import (
	"sync"
	"time"
)

// sweepEvery is how many Allow calls pass between sweeps of idle buckets.
const sweepEvery = 1024

// PerKey keeps one token bucket per key, created on first use. Buckets that
// have refilled completely are dropped periodically so the map does not grow
// with every caller ever seen.
type PerKey struct {
	rate     float64
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*TokenBucket
	calls   int
}

var _ KeyedRateLimiter = (*PerKey)(nil)

// NewPerKey creates a keyed limiter where each key gets rate tokens per
// second and a burst of capacity.
func NewPerKey(rate float64, capacity int) *PerKey {
	return newPerKey(rate, capacity, time.Now)
}

func newPerKey(rate float64, capacity int, now func() time.Time) *PerKey {
	return &PerKey{
		rate:     rate,
		capacity: capacity,
		now:      now,
		buckets:  make(map[string]*TokenBucket),
	}
}

// Allow consumes a token from the bucket of key.
func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = newTokenBucket(p.rate, p.capacity, p.now)
		p.buckets[key] = b
	}
	p.calls++
	if p.calls%sweepEvery == 0 {
		p.sweep(key)
	}
	p.mu.Unlock()

	return b.Allow()
}

// sweep drops full buckets other than keep. Called with mu held.
func (p *PerKey) sweep(keep string) {
	for k, b := range p.buckets {
		if k != keep && b.full() {
			delete(p.buckets, k)
		}
	}
}

// Len is the number of tracked keys.
func (p *PerKey) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}
