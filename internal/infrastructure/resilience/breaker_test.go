package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestOpensAfterThreshold(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, CoolDown: time.Hour})

	fail := func() error { return errors.New("boom") }
	for i := 0; i < 3; i++ {
		if err := b.Execute(fail); err == nil {
			t.Fatal("expected failure")
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, CoolDown: time.Hour})

	b.Record(false)
	b.Record(false)
	b.Record(true)
	b.Record(false)
	b.Record(false)

	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestHalfOpenProbeCloses(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, CoolDown: time.Millisecond, ProbeCount: 1})

	b.Record(false)
	if b.State() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(5 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}

	b.Record(true)
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, CoolDown: time.Millisecond})

	b.Record(false)
	time.Sleep(5 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatal("expected half-open")
	}

	b.Record(false)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []State
	b := New("test", Settings{
		FailureThreshold: 1,
		CoolDown:         time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, to)
		},
	})

	b.Record(false)
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("expected one transition to open, got %v", transitions)
	}
}
