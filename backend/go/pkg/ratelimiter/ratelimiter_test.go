package ratelimiter

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tb := newTokenBucket(2, 3, clock.Now)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d within burst was rejected", i)
		}
	}
	if tb.Allow() {
		t.Fatal("request beyond burst was allowed")
	}

	clock.Advance(500 * time.Millisecond) // one token at 2/s
	if !tb.Allow() {
		t.Fatal("refilled token was not granted")
	}
	if tb.Allow() {
		t.Fatal("only one token should have refilled")
	}

	clock.Advance(time.Hour)
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("refill must cap at capacity, request %d rejected", i)
		}
	}
	if tb.Allow() {
		t.Fatal("refill exceeded capacity")
	}
}

func TestPerKey_IndependentBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := newPerKey(1, 1, clock.Now)

	if !p.Allow("alice") || p.Allow("alice") {
		t.Fatal("alice should get exactly one request")
	}
	if !p.Allow("bob") {
		t.Fatal("bob must not be limited by alice")
	}
	clock.Advance(time.Second)
	if !p.Allow("alice") {
		t.Fatal("alice should have refilled")
	}
}

func TestPerKey_SweepsIdleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := newPerKey(10, 5, clock.Now)

	for i := 0; i < sweepEvery-1; i++ {
		p.Allow(fmt.Sprintf("caller-%d", i))
	}
	clock.Advance(time.Second)
	p.Allow("last")

	if n := p.Len(); n != 1 {
		t.Fatalf("expected only the active key to survive the sweep, got %d", n)
	}
}
