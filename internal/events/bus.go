// Package events fans state-change notifications out to the rendering layer.
//
// The bus is intentionally lossy: a slow subscriber drops events rather than
// back-pressuring the trigger coordinator or session registry, since the
// rendering layer re-reads authoritative state on reconnect anyway.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hovershell/core/internal/shared/types"
)

const subscriberBuffer = 64

// Bus delivers events to any number of subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan types.Event
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan types.Event)}
}

// Subscribe registers a subscriber and returns its id and delivery channel.
func (b *Bus) Subscribe() (string, <-chan types.Event) {
	ch := make(chan types.Event, subscriberBuffer)
	subID := uuid.New().String()

	b.mu.Lock()
	b.subs[subID] = ch
	b.mu.Unlock()

	return subID, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[subID]; ok {
		delete(b.subs, subID)
		close(ch)
	}
}

// Publish delivers an event to all subscribers without blocking.
func (b *Bus) Publish(eventType types.EventType, payload interface{}) {
	ev := types.Event{Type: eventType, Payload: payload, Timestamp: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
