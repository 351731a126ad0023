// Package ratelimiter provides token bucket rate limiting, either as a single
// shared bucket or one bucket per caller.
package ratelimiter

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// KeyedRateLimiter limits each key independently.
type KeyedRateLimiter interface {
	Allow(key string) bool
}
