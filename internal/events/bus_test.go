package events

import (
	"testing"
	"time"

	"github.com/hovershell/core/internal/shared/types"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBus()

	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	b.Publish(types.EventVisibilityChanged, types.VisibilityChanged{State: types.VisibilityVisible})

	for _, ch := range []<-chan types.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != types.EventVisibilityChanged {
				t.Fatalf("unexpected event type %s", ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()

	subID, ch := b.Subscribe()
	b.Unsubscribe(subID)

	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Subscribers())
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus()
	b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(types.EventResizeDelta, types.ResizeDelta{HeightFraction: 0.5})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
