// Package resilience implements a circuit breaker used to guard provider
// calls so a flapping backend fails fast instead of tying up request slots.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings tunes breaker behavior.
type Settings struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold uint32
	// CoolDown is how long the circuit stays open before probing.
	CoolDown time.Duration
	// ProbeCount is how many consecutive successes in half-open close it again.
	ProbeCount uint32
	// OnStateChange, if set, is called on every transition.
	OnStateChange func(name string, from, to State)
}

// Breaker is a per-provider circuit breaker.
type Breaker struct {
	name     string
	settings Settings

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
}

// New creates a breaker. Zero settings get conservative defaults.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.CoolDown == 0 {
		settings.CoolDown = 30 * time.Second
	}
	if settings.ProbeCount == 0 {
		settings.ProbeCount = 1
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, promoting open to half-open once the
// cool-down has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current(time.Now())
}

// Allow reports whether a call may proceed. The caller must report the
// outcome with Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current(time.Now()) == StateOpen {
		return ErrCircuitOpen
	}
	return nil
}

// Record reports a call outcome.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.current(now)

	if success {
		b.failures = 0
		if state == StateHalfOpen {
			b.successes++
			if b.successes >= b.settings.ProbeCount {
				b.transition(StateClosed, now)
			}
		}
		return
	}

	b.successes = 0
	switch state {
	case StateClosed:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// Execute runs fn under the breaker.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err == nil)
	return err
}

// current must be called with the lock held.
func (b *Breaker) current(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.settings.CoolDown {
		b.transition(StateHalfOpen, now)
	}
	return b.state
}

// transition must be called with the lock held.
func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	if to == StateOpen {
		b.openedAt = now
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
