package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hovershell/core/internal/shared/types"
)

func testMachine(t *testing.T) (*machine, *[]types.VisibilityState) {
	t.Helper()
	var seen []types.VisibilityState
	m := newMachine(machineConfig{
		heightFrac: 0.45,
		minFrac:    0.2,
		maxFrac:    0.9,
		debounce:   50 * time.Millisecond,
	}, func(from, to types.VisibilityState) {
		seen = append(seen, to)
	})
	return m, &seen
}

func validStates(states []types.VisibilityState) bool {
	for _, s := range states {
		switch s {
		case types.VisibilityHidden, types.VisibilityRevealing,
			types.VisibilityVisible, types.VisibilityHiding:
		default:
			return false
		}
	}
	return true
}

func TestToggleFullCycle(t *testing.T) {
	m, seen := testMachine(t)
	now := time.Now()

	m.RequestToggle("hotkey", now)
	assert.Equal(t, types.VisibilityRevealing, m.State())

	m.Settle()
	assert.Equal(t, types.VisibilityVisible, m.State())

	m.RequestToggle("hotkey", now.Add(time.Second))
	assert.Equal(t, types.VisibilityHiding, m.State())

	m.Settle()
	assert.Equal(t, types.VisibilityHidden, m.State())

	assert.True(t, validStates(*seen))
}

func TestToggleDuringRevealQueues(t *testing.T) {
	m, _ := testMachine(t)
	now := time.Now()

	m.RequestToggle("hotkey", now)
	assert.Equal(t, types.VisibilityRevealing, m.State())

	// Fires mid-transition: queued, not interrupted.
	m.RequestToggle("hotkey", now.Add(100*time.Millisecond))
	assert.Equal(t, types.VisibilityRevealing, m.State())

	m.Settle()
	// Settles to visible, then the queued toggle starts hiding.
	assert.Equal(t, types.VisibilityHiding, m.State())
}

func TestHeldHotkeyDebounced(t *testing.T) {
	m, seen := testMachine(t)
	now := time.Now()

	// Key-repeat events inside the debounce window collapse to one toggle.
	m.RequestToggle("hotkey", now)
	m.RequestToggle("hotkey", now.Add(10*time.Millisecond))
	m.RequestToggle("hotkey", now.Add(20*time.Millisecond))

	assert.Equal(t, types.VisibilityRevealing, m.State())
	assert.Equal(t, 1, len(*seen))
}

func TestOppositeRequestWinsInsideWindow(t *testing.T) {
	m, _ := testMachine(t)
	now := time.Now()

	m.RequestToggle("hotkey", now)
	m.Settle()
	assert.Equal(t, types.VisibilityVisible, m.State())

	// show then hide within one window: last write wins.
	m.RequestShow("menu", now.Add(time.Second))
	m.RequestHide("menu", false, now.Add(time.Second).Add(10*time.Millisecond))
	assert.Equal(t, types.VisibilityHiding, m.State())
}

func TestForcedHideInterruptsReveal(t *testing.T) {
	m, _ := testMachine(t)
	now := time.Now()

	m.RequestToggle("hotkey", now)
	assert.Equal(t, types.VisibilityRevealing, m.State())

	m.RequestHide("hotkey", true, now.Add(time.Millisecond))
	assert.Equal(t, types.VisibilityHiding, m.State())

	m.Settle()
	assert.Equal(t, types.VisibilityHidden, m.State())
}

func TestForcedHideIdempotentWhenHidden(t *testing.T) {
	m, seen := testMachine(t)

	m.RequestHide("hotkey", true, time.Now())
	assert.Equal(t, types.VisibilityHidden, m.State())
	assert.Empty(t, *seen)
}

func TestShowWhileVisibleIsNoop(t *testing.T) {
	m, seen := testMachine(t)
	now := time.Now()

	m.RequestShow("menu", now)
	m.Settle()
	assert.Equal(t, types.VisibilityVisible, m.State())

	before := len(*seen)
	m.RequestShow("menu", now.Add(time.Second))
	assert.Equal(t, types.VisibilityVisible, m.State())
	assert.Equal(t, before, len(*seen))
}

func TestShowDuringHideQueues(t *testing.T) {
	m, _ := testMachine(t)
	now := time.Now()

	m.RequestShow("menu", now)
	m.Settle()
	m.RequestHide("menu", false, now.Add(time.Second))
	assert.Equal(t, types.VisibilityHiding, m.State())

	m.RequestShow("menu", now.Add(2*time.Second))
	m.Settle()
	assert.Equal(t, types.VisibilityRevealing, m.State())
}

func TestScrollOnlyWhileVisible(t *testing.T) {
	m, _ := testMachine(t)
	now := time.Now()

	_, applied := m.Scroll(0.1)
	assert.False(t, applied)

	m.RequestShow("menu", now)
	m.Settle()

	frac, applied := m.Scroll(0.1)
	assert.True(t, applied)
	assert.InDelta(t, 0.55, frac, 1e-9)
}

func TestScrollClamps(t *testing.T) {
	m, _ := testMachine(t)
	now := time.Now()
	m.RequestShow("menu", now)
	m.Settle()

	frac, _ := m.Scroll(10)
	assert.Equal(t, 0.9, frac)

	frac, _ = m.Scroll(-10)
	assert.Equal(t, 0.2, frac)
}

func TestStateAlwaysDefined(t *testing.T) {
	m, seen := testMachine(t)
	now := time.Now()

	ops := []func(int){
		func(i int) { m.RequestToggle("hotkey", now.Add(time.Duration(i)*time.Second)) },
		func(i int) { m.RequestShow("menu", now.Add(time.Duration(i)*time.Second)) },
		func(i int) { m.RequestHide("hotkey", true, now.Add(time.Duration(i)*time.Second)) },
		func(i int) { m.Settle() },
	}
	for i := 0; i < 100; i++ {
		ops[i%len(ops)](i)
		assert.True(t, validStates([]types.VisibilityState{m.State()}))
	}
	assert.True(t, validStates(*seen))
}
