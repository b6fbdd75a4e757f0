package timer

import (
	"testing"
	"time"
)

func TestExpiryDelivered(t *testing.T) {
	s := New(4)
	defer s.Close()

	timerID := s.Start(5 * time.Millisecond)

	select {
	case exp := <-s.Expiries():
		if exp.ID != timerID {
			t.Fatalf("expected %s, got %s", timerID, exp.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestCancelPreventsDelivery(t *testing.T) {
	s := New(4)
	defer s.Close()

	timerID := s.Start(50 * time.Millisecond)
	s.Cancel(timerID)

	select {
	case exp := <-s.Expiries():
		t.Fatalf("cancelled timer fired: %s", exp.ID)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	s := New(4)
	defer s.Close()

	timerID := s.Start(time.Millisecond)

	select {
	case <-s.Expiries():
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	// Must not panic or block.
	s.Cancel(timerID)
	s.Cancel("tmr_unknown")
}

func TestCloseCancelsPending(t *testing.T) {
	s := New(4)
	s.Start(20 * time.Millisecond)
	s.Close()

	select {
	case exp := <-s.Expiries():
		t.Fatalf("timer fired after close: %s", exp.ID)
	case <-time.After(100 * time.Millisecond):
	}
}
