// Package timer provides the monotonic countdown primitives behind dwell
// detection and settle watchdogs.
//
// Expiries are delivered as messages on a channel so the consumer can
// serialize them with other input events. Cancelling a timer that has
// already fired is a safe no-op; the fired expiry may still be delivered,
// and consumers are expected to re-check their preconditions.
package timer

import (
	"sync"
	"time"

	"github.com/hovershell/core/internal/shared/id"
)

// Expiry is one elapsed timer notification.
type Expiry struct {
	ID      id.TimerID
	FiredAt time.Time
}

// Service owns a set of one-shot countdown timers.
type Service struct {
	mu       sync.Mutex
	pending  map[id.TimerID]*time.Timer
	expiries chan Expiry
	closed   bool
}

// New creates a timer service. The expiry channel is buffered so firing
// never blocks the runtime timer goroutine.
func New(buffer int) *Service {
	if buffer <= 0 {
		buffer = 16
	}
	return &Service{
		pending:  make(map[id.TimerID]*time.Timer),
		expiries: make(chan Expiry, buffer),
	}
}

// Start arms a one-shot timer and returns its id.
func (s *Service) Start(d time.Duration) id.TimerID {
	timerID := id.NewTimerID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return timerID
	}

	s.pending[timerID] = time.AfterFunc(d, func() {
		s.fire(timerID)
	})
	return timerID
}

// Cancel stops a pending timer. Cancelling an unknown or already-fired id
// is a no-op.
func (s *Service) Cancel(timerID id.TimerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[timerID]; ok {
		t.Stop()
		delete(s.pending, timerID)
	}
}

// Expiries returns the delivery channel for elapsed timers.
func (s *Service) Expiries() <-chan Expiry {
	return s.expiries
}

// Close cancels all pending timers. Expiries already enqueued remain
// readable.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for timerID, t := range s.pending {
		t.Stop()
		delete(s.pending, timerID)
	}
}

func (s *Service) fire(timerID id.TimerID) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[timerID]; !ok {
		// Lost the race with Cancel.
		s.mu.Unlock()
		return
	}
	delete(s.pending, timerID)
	s.mu.Unlock()

	// Buffered send; drop on overflow rather than stall the timer goroutine.
	select {
	case s.expiries <- Expiry{ID: timerID, FiredAt: time.Now()}:
	default:
	}
}
