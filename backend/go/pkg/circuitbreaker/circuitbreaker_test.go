package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestBreaker_TripsAndRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := New(2, 1, 30*time.Second, WithClock(clock.Now))
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if b.State() != Open {
		t.Fatalf("expected Open, got %v", b.State())
	}

	called := false
	if err := b.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("request must not run while open")
	}

	clock.t = clock.t.Add(31 * time.Second)
	if b.State() != HalfOpen {
		t.Fatalf("expected Half-Open, got %v", b.State())
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open trial call failed: %v", err)
	}
	if b.State() != Closed {
		t.Errorf("expected Closed after a successful half-open trial call, got %v", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := New(1, 2, time.Second, WithClock(clock.Now))
	_ = b.Execute(func() error { return errors.New("x") })
	clock.t = clock.t.Add(2 * time.Second)

	_ = b.Execute(func() error { return errors.New("still down") })
	if b.State() != Open {
		t.Errorf("expected Open after half-open failure, got %v", b.State())
	}
}

func TestBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	refusal := errors.New("refused")
	b := New(1, 1, time.Minute, WithFailurePredicate(func(err error) bool { return !errors.Is(err, refusal) }))

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return refusal }); !errors.Is(err, refusal) {
			t.Fatalf("expected refusal to pass through, got %v", err)
		}
	}
	if b.State() != Closed {
		t.Errorf("ignored errors must not trip the breaker, state %v", b.State())
	}
}

func TestState_String(t *testing.T) {
	if Closed.String() != "Closed" || Open.String() != "Open" || HalfOpen.String() != "Half-Open" {
		t.Error("unexpected state names")
	}
	if State(9).String() != "Unknown" {
		t.Error("unexpected name for unknown state")
	}
}
