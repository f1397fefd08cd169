// Package circuit provides a minimal circuit breaker for outbound
// collaborator calls.
package circuit

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
)

// Change reports a state transition caused by a recorded outcome. Callers use
// it to log transitions exactly once.
type Change struct {
	Opened bool
	Closed bool
}

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 1
	defaultRetryAfter       = 30 * time.Second
)

// Breaker tracks consecutive failures against a named collaborator. After the
// failure threshold it opens and Allow answers false until the retry window
// elapses, at which point single probe calls are let through until enough of
// them succeed to close it again.
type Breaker struct {
	mu         sync.Mutex
	name       string
	failThresh int
	succThresh int
	retryAfter time.Duration
	now        func() time.Time

	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) { b.failThresh = n }
}

// WithSuccessThreshold sets how many consecutive successes close an open
// breaker.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) { b.succThresh = n }
}

// WithRetryAfter sets how long an open breaker blocks before probes are
// allowed through.
func WithRetryAfter(d time.Duration) Option {
	return func(b *Breaker) { b.retryAfter = d }
}

// WithClock overrides the time source in tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:       name,
		failThresh: defaultFailureThreshold,
		succThresh: defaultSuccessThreshold,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// State reports the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether the breaker is open.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call may proceed. Closed breakers always allow;
// open breakers allow once the retry window has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	return b.now().Sub(b.openedAt) >= b.retryAfter
}

// RecordFailure notes a failed call. It reports whether the caller should
// fall back and whether this failure opened the breaker.
func (b *Breaker) RecordFailure() (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		// A failed probe re-arms the retry window.
		b.successes = 0
		b.openedAt = b.now()
		return true, Change{}
	}

	b.failures++
	if b.failures >= b.failThresh {
		b.state = StateOpen
		b.failures = 0
		b.openedAt = b.now()
		return true, Change{Opened: true}
	}
	return false, Change{}
}

// RecordSuccess notes a successful call. It reports whether the caller should
// use the primary path and whether this success closed the breaker.
func (b *Breaker) RecordSuccess() (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		b.failures = 0
		return true, Change{}
	}

	b.successes++
	if b.successes >= b.succThresh {
		b.state = StateClosed
		b.successes = 0
		b.failures = 0
		return true, Change{Closed: true}
	}
	return false, Change{}
}

// Reset forces the breaker closed and clears all counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
