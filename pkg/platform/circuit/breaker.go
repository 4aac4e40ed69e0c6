// Package circuit implements a consecutive-failure circuit breaker for
// callers that can degrade to a fallback while a dependency is unhealthy.
package circuit

import "sync"

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Change reports a state transition caused by the last recorded outcome.
type Change struct {
	Opened bool
	Closed bool
}

// Breaker opens after a run of failures and closes again after a run of
// successful primary calls. While open, callers keep probing the primary and
// serve from their fallback.
type Breaker struct {
	name string

	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// RecordFailure counts a failed primary call. It reports whether the caller
// should use its fallback.
func (b *Breaker) RecordFailure() (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	if b.state == StateOpen {
		return true, change
	}
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		return true, Change{Opened: true}
	}
	return false, change
}

// RecordSuccess counts a successful primary call. It reports whether the
// primary result may be used.
func (b *Breaker) RecordSuccess() (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		b.successes++
		if b.successes < b.successThreshold {
			return false, change
		}
		b.state = StateClosed
		b.failures = 0
		b.successes = 0
		return true, Change{Closed: true}
	}
	b.failures = 0
	return true, change
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
