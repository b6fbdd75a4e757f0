package trigger

import (
	"time"

	"github.com/hovershell/core/internal/shared/types"
)

// pendingOp is a visibility request queued while a transition is in flight.
type pendingOp int

const (
	pendingNone pendingOp = iota
	pendingShow
	pendingHide
	pendingToggle
)

// machine is the pure visibility state machine. It has no goroutines, no
// clock of its own, and no fallible operations: every input is a validated
// message, every output goes through the transition callback.
type machine struct {
	state   types.VisibilityState
	pending pendingOp

	heightFrac float64
	minFrac    float64
	maxFrac    float64

	// Noise suppression: an identical request from the same source inside
	// the debounce window is dropped. Opposite requests are never dropped,
	// so the most recent trigger wins.
	debounce    time.Duration
	lastSource  string
	lastOp      pendingOp
	lastRequest time.Time

	onTransition func(from, to types.VisibilityState)
}

type machineConfig struct {
	heightFrac float64
	minFrac    float64
	maxFrac    float64
	debounce   time.Duration
}

func newMachine(cfg machineConfig, onTransition func(from, to types.VisibilityState)) *machine {
	return &machine{
		state:        types.VisibilityHidden,
		heightFrac:   cfg.heightFrac,
		minFrac:      cfg.minFrac,
		maxFrac:      cfg.maxFrac,
		debounce:     cfg.debounce,
		onTransition: onTransition,
	}
}

func (m *machine) State() types.VisibilityState { return m.state }

// RequestToggle flips visibility, queueing if a transition is in flight.
func (m *machine) RequestToggle(source string, now time.Time) {
	if m.debounced(source, pendingToggle, now) {
		return
	}
	switch m.state {
	case types.VisibilityHidden:
		m.transition(types.VisibilityRevealing)
	case types.VisibilityVisible:
		m.transition(types.VisibilityHiding)
	default:
		m.pending = pendingToggle
	}
}

// RequestShow reveals the surface. A no-op when already visible or revealing;
// queued when a hide is in flight.
func (m *machine) RequestShow(source string, now time.Time) {
	if m.debounced(source, pendingShow, now) {
		return
	}
	switch m.state {
	case types.VisibilityHidden:
		m.transition(types.VisibilityRevealing)
	case types.VisibilityHiding:
		m.pending = pendingShow
	}
}

// RequestHide hides the surface. Forced hides (quick-hide) interrupt an
// in-flight reveal instead of queueing; either way hiding an already hidden
// surface is a no-op.
func (m *machine) RequestHide(source string, forced bool, now time.Time) {
	if !forced && m.debounced(source, pendingHide, now) {
		return
	}
	switch m.state {
	case types.VisibilityVisible:
		m.transition(types.VisibilityHiding)
	case types.VisibilityRevealing:
		if forced {
			m.pending = pendingNone
			m.transition(types.VisibilityHiding)
		} else {
			m.pending = pendingHide
		}
	case types.VisibilityHiding, types.VisibilityHidden:
		if forced {
			m.pending = pendingNone
		}
	}
}

// Settle completes an in-flight transition, then applies the queued request
// if one exists.
func (m *machine) Settle() {
	switch m.state {
	case types.VisibilityRevealing:
		m.transition(types.VisibilityVisible)
	case types.VisibilityHiding:
		m.transition(types.VisibilityHidden)
	default:
		return
	}

	// Apply the queued request directly; debounce only filters live input.
	queued := m.pending
	m.pending = pendingNone
	switch queued {
	case pendingToggle:
		if m.state == types.VisibilityHidden {
			m.transition(types.VisibilityRevealing)
		} else {
			m.transition(types.VisibilityHiding)
		}
	case pendingShow:
		if m.state == types.VisibilityHidden {
			m.transition(types.VisibilityRevealing)
		}
	case pendingHide:
		if m.state == types.VisibilityVisible {
			m.transition(types.VisibilityHiding)
		}
	}
}

// Scroll adjusts the surface height fraction. Only meaningful while visible;
// returns the clamped fraction and whether it applied.
func (m *machine) Scroll(delta float64) (float64, bool) {
	if m.state != types.VisibilityVisible {
		return m.heightFrac, false
	}
	m.heightFrac += delta
	if m.heightFrac < m.minFrac {
		m.heightFrac = m.minFrac
	}
	if m.heightFrac > m.maxFrac {
		m.heightFrac = m.maxFrac
	}
	return m.heightFrac, true
}

func (m *machine) debounced(source string, op pendingOp, now time.Time) bool {
	if source == m.lastSource && op == m.lastOp && now.Sub(m.lastRequest) < m.debounce {
		return true
	}
	m.lastSource = source
	m.lastOp = op
	m.lastRequest = now
	return false
}

func (m *machine) transition(to types.VisibilityState) {
	from := m.state
	m.state = to
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
}
