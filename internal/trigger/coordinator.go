package trigger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hovershell/core/internal/events"
	"github.com/hovershell/core/internal/infrastructure/config"
	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/shared/id"
	"github.com/hovershell/core/internal/shared/types"
	"github.com/hovershell/core/internal/timer"
)

// baseZonePx is the edge activation zone thickness at sensitivity 1.0.
// Sensitivity scales the zone, never the dwell threshold.
const baseZonePx = 8

// scrollStep converts one scroll delta unit into a height fraction change.
const scrollStep = 0.01

// Coordinator converts raw input signals into one authoritative visibility
// decision. All event sources, including dwell timer expiries, are funneled
// into a single goroutine so VisibilityState never sees concurrent mutation.
type Coordinator struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	bus     *events.Bus
	timers  *timer.Service

	surface  config.SurfaceConfig
	bindings map[types.TriggerKind]types.TriggerBinding

	msgs chan message

	m *machine

	// Dwell bookkeeping, owned by the run loop.
	dwellTimer  id.TimerID
	dwellArmed  bool
	lastPointer types.PointerSample

	// Settle watchdog, owned by the run loop.
	settleTimer id.TimerID
	revealStart time.Time
}

type message struct {
	hotkey  string
	pointer *types.PointerSample
	scroll  *float64
	menu    types.MenuAction
	settled bool
}

// New creates a coordinator. Bindings are registered separately, before Run.
func New(surface config.SurfaceConfig, timers *timer.Service, bus *events.Bus, metrics *monitoring.Metrics, log *logging.Logger) *Coordinator {
	c := &Coordinator{
		log:      log,
		metrics:  metrics,
		bus:      bus,
		timers:   timers,
		surface:  surface,
		bindings: make(map[types.TriggerKind]types.TriggerBinding),
		msgs:     make(chan message, 64),
	}
	c.m = newMachine(machineConfig{
		heightFrac: surface.HeightFraction,
		minFrac:    surface.MinHeightFrac,
		maxFrac:    surface.MaxHeightFrac,
		debounce:   time.Duration(surface.DebounceMs) * time.Millisecond,
	}, c.committed)
	return c
}

// RegisterBinding validates and stores a binding. A second binding of the
// same kind is a conflict; a malformed spec is a validation error. Must be
// called before Run.
func (c *Coordinator) RegisterBinding(b types.TriggerBinding) error {
	if _, exists := c.bindings[b.Kind]; exists {
		return types.Conflictf("binding for kind %q already registered", b.Kind)
	}

	switch b.Kind {
	case types.TriggerHotkey:
		chord, err := NormalizeChord(b.Toggle)
		if err != nil {
			return err
		}
		b.Toggle = chord
		if b.QuickHide != "" {
			chord, err := NormalizeChord(b.QuickHide)
			if err != nil {
				return err
			}
			b.QuickHide = chord
		}
	case types.TriggerEdgeDwell:
		if b.DwellMs == 0 {
			return types.Validationf("edge dwell threshold must be > 0")
		}
		if err := validEdge(b.Edge); err != nil {
			return err
		}
		if b.Sensitivity <= 0 {
			b.Sensitivity = 1.0
		}
	case types.TriggerEdgeScroll:
		if err := validEdge(b.Edge); err != nil {
			return err
		}
		if b.Sensitivity <= 0 {
			b.Sensitivity = 1.0
		}
	case types.TriggerMenuClick:
	default:
		return types.Validationf("unknown trigger kind %q", b.Kind)
	}

	c.bindings[b.Kind] = b
	return nil
}

// State returns the current visibility. Only consistent when read from the
// run loop's perspective; external readers use it for snapshots.
func (c *Coordinator) State() types.VisibilityState { return c.m.State() }

// OnHotkey enqueues a hotkey chord press.
func (c *Coordinator) OnHotkey(chord string) { c.enqueue(message{hotkey: chord}) }

// OnPointerSample enqueues a pointer position report.
func (c *Coordinator) OnPointerSample(sample types.PointerSample) {
	c.enqueue(message{pointer: &sample})
}

// OnScrollAtEdge enqueues a scroll delta captured in the edge zone.
func (c *Coordinator) OnScrollAtEdge(delta float64) { c.enqueue(message{scroll: &delta}) }

// OnMenuAction enqueues an explicit show/hide/toggle request.
func (c *Coordinator) OnMenuAction(action types.MenuAction) { c.enqueue(message{menu: action}) }

// Settled reports that the rendering layer finished the in-flight
// reveal/hide animation.
func (c *Coordinator) Settled() { c.enqueue(message{settled: true}) }

func (c *Coordinator) enqueue(msg message) {
	select {
	case c.msgs <- msg:
	default:
		// Input is droppable under pathological backlog; the next sample
		// or keypress re-establishes intent.
		c.log.Warn("trigger event dropped, queue full")
	}
}

// Run processes input events and timer expiries until ctx is done. All state
// mutation happens here.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.msgs:
			c.handle(msg, time.Now())
		case exp := <-c.timers.Expiries():
			c.handleExpiry(exp)
		}
	}
}

func (c *Coordinator) handle(msg message, now time.Time) {
	switch {
	case msg.hotkey != "":
		c.handleHotkey(msg.hotkey, now)
	case msg.pointer != nil:
		c.handlePointer(*msg.pointer)
	case msg.scroll != nil:
		c.handleScroll(*msg.scroll)
	case msg.menu != "":
		c.handleMenu(msg.menu, now)
	case msg.settled:
		c.settle()
	}
}

func (c *Coordinator) handleHotkey(chord string, now time.Time) {
	b, ok := c.bindings[types.TriggerHotkey]
	if !ok {
		return
	}
	normalized, err := NormalizeChord(chord)
	if err != nil {
		return
	}
	switch normalized {
	case b.Toggle:
		c.m.RequestToggle("hotkey", now)
	case b.QuickHide:
		c.m.RequestHide("hotkey", true, now)
	}
}

func (c *Coordinator) handlePointer(sample types.PointerSample) {
	c.lastPointer = sample

	b, ok := c.bindings[types.TriggerEdgeDwell]
	if !ok {
		return
	}

	if c.inZone(sample, b) {
		if !c.dwellArmed {
			c.dwellArmed = true
			c.dwellTimer = c.timers.Start(time.Duration(b.DwellMs) * time.Millisecond)
		}
		return
	}

	if c.dwellArmed {
		c.dwellArmed = false
		c.timers.Cancel(c.dwellTimer)
		c.metrics.DwellCancels.Inc()
	}
}

func (c *Coordinator) handleScroll(delta float64) {
	b, ok := c.bindings[types.TriggerEdgeScroll]
	if !ok {
		return
	}
	frac, applied := c.m.Scroll(delta * scrollStep * b.Sensitivity)
	if applied {
		c.bus.Publish(types.EventResizeDelta, types.ResizeDelta{HeightFraction: frac})
	}
}

// Menu actions need no binding: the menu is always present and carries the
// action itself.
func (c *Coordinator) handleMenu(action types.MenuAction, now time.Time) {
	switch action {
	case types.MenuShow:
		c.m.RequestShow("menu", now)
	case types.MenuHide:
		c.m.RequestHide("menu", false, now)
	case types.MenuToggle:
		c.m.RequestToggle("menu", now)
	}
}

func (c *Coordinator) handleExpiry(exp timer.Expiry) {
	switch exp.ID {
	case c.dwellTimer:
		if !c.dwellArmed {
			// Stale expiry: timer fired after the pointer left the zone.
			return
		}
		c.dwellArmed = false
		b := c.bindings[types.TriggerEdgeDwell]
		if !c.inZone(c.lastPointer, b) {
			// Re-check before committing; a stale expiry never forces
			// an unwanted reveal.
			return
		}
		c.metrics.DwellReveals.Inc()
		c.m.RequestShow("dwell", exp.FiredAt)
	case c.settleTimer:
		// Watchdog: the rendering layer never acknowledged; force-settle so
		// a missing renderer cannot wedge the state machine.
		c.settle()
	}
}

func (c *Coordinator) settle() {
	if c.settleTimer != "" {
		c.timers.Cancel(c.settleTimer)
		c.settleTimer = ""
	}
	c.m.Settle()
}

// committed is the machine's transition callback.
func (c *Coordinator) committed(from, to types.VisibilityState) {
	c.metrics.VisibilityTransitions.WithLabelValues(string(to)).Inc()
	c.log.Debug("visibility transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	switch to {
	case types.VisibilityRevealing:
		c.revealStart = time.Now()
		c.armSettleWatchdog()
	case types.VisibilityHiding:
		c.armSettleWatchdog()
	case types.VisibilityVisible:
		if !c.revealStart.IsZero() {
			c.metrics.RevealLatency.Observe(time.Since(c.revealStart).Seconds())
			c.revealStart = time.Time{}
		}
	}

	c.bus.Publish(types.EventVisibilityChanged, types.VisibilityChanged{State: to})
}

func (c *Coordinator) armSettleWatchdog() {
	if c.settleTimer != "" {
		c.timers.Cancel(c.settleTimer)
	}
	c.settleTimer = c.timers.Start(time.Duration(c.surface.SettleTimeoutMs) * time.Millisecond)
}

// inZone reports whether the sample sits inside the activation zone of the
// binding's edge. Sensitivity scales zone thickness.
func (c *Coordinator) inZone(sample types.PointerSample, b types.TriggerBinding) bool {
	thickness := int(baseZonePx * b.Sensitivity)
	if thickness < 1 {
		thickness = 1
	}
	switch b.Edge {
	case types.EdgeTop:
		return sample.Y >= 0 && sample.Y < thickness
	case types.EdgeBottom:
		return sample.Y > c.surface.ScreenHeight-thickness && sample.Y <= c.surface.ScreenHeight
	case types.EdgeLeft:
		return sample.X >= 0 && sample.X < thickness
	case types.EdgeRight:
		return sample.X > c.surface.ScreenWidth-thickness && sample.X <= c.surface.ScreenWidth
	default:
		return false
	}
}

func validEdge(e types.Edge) error {
	switch e {
	case types.EdgeTop, types.EdgeBottom, types.EdgeLeft, types.EdgeRight:
		return nil
	default:
		return types.Validationf("unknown edge %q", e)
	}
}
