package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen lets trial requests through to test whether the backend recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker guards calls to a flaky backend.
type Breaker struct {
	failureThreshold uint32        // consecutive failures that trip the circuit
	successThreshold uint32        // consecutive half-open successes that close it
	timeout          time.Duration // time spent Open before probing
	isFailure        func(error) bool
	now              func() time.Time

	mutex                sync.Mutex
	state                State
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	openedAt             time.Time
}

// Option customizes a Breaker.
type Option func(*Breaker)

// WithFailurePredicate decides which errors count against the backend.
// Errors it rejects are returned to the caller but leave the counters alone.
func WithFailurePredicate(fn func(error) bool) Option {
	return func(b *Breaker) { b.isFailure = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a Breaker.
// failureThreshold: consecutive failures required to open the circuit.
// successThreshold: consecutive successes in half-open state required to close it.
// timeout: how long the circuit stays open before going half-open.
func New(failureThreshold, successThreshold uint32, timeout time.Duration, opts ...Option) *Breaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	b := &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		isFailure:        func(err error) bool { return err != nil },
		now:              time.Now,
		state:            Closed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state of the circuit breaker.
func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.advance()
	return b.state
}

// Execute runs req unless the circuit is open.
func (b *Breaker) Execute(req func() error) error {
	b.mutex.Lock()
	b.advance()
	if b.state == Open {
		b.mutex.Unlock()
		return ErrCircuitOpen
	}
	b.mutex.Unlock()

	err := req()

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err != nil && b.isFailure(err) {
		b.onFailure()
	} else if err == nil {
		b.onSuccess()
	}
	return err
}

// advance moves Open to HalfOpen once the timeout passed. Caller holds mutex.
func (b *Breaker) advance() {
	if b.state == Open && b.now().Sub(b.openedAt) > b.timeout {
		b.state = HalfOpen
		b.consecutiveSuccesses = 0
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.successThreshold {
			b.reset()
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

func (b *Breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip opens the circuit.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

// reset closes the circuit and resets all counters.
func (b *Breaker) reset() {
	b.state = Closed
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}
