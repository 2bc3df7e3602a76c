// Package eventbus implements the typed event callbacks a mission can
// subscribe to: a fixed set of event names, each with a well-defined
// payload, fanned out to buffered per-subscriber channels.
package eventbus

import (
	"sync"
	"time"
)

// EventType names one of the fixed set of mission-lifecycle events.
type EventType string

const (
	OnConnect         EventType = "on_connect"
	OnDisconnect      EventType = "on_disconnect"
	OnArm             EventType = "on_arm"
	OnDisarm          EventType = "on_disarm"
	OnCommandStart    EventType = "on_command_start"
	OnCommandComplete EventType = "on_command_complete"
	OnSafetyViolation EventType = "on_safety_violation"
	OnAbort           EventType = "on_abort"
)

// Event is one published occurrence.
type Event struct {
	Type      EventType
	Payload   any
	Timestamp time.Time
}

// subscriberBuffer is how many unread events a slow subscriber may fall
// behind before new events are dropped for it.
const subscriberBuffer = 32

// Subscriber receives events via Ch until Bus.Unsubscribe(ID) is called.
type Subscriber struct {
	ID string
	Ch chan Event
}

// Bus is an in-process typed event bus. Unlike internal/telemetry's Bus
// (which only ever needs the latest snapshot), event consumers need
// every event, so each subscriber gets a buffered channel instead of a
// size-1 "latest wins" slot.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	nextID      int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string]*Subscriber)}
}

// Subscribe registers a new Subscriber and returns it.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscriber{
		ID: generateID(b.nextID),
		Ch: make(chan Event, subscriberBuffer),
	}
	b.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.Ch)
		delete(b.subscribers, id)
	}
}

// Publish delivers an event of type t with payload to every subscriber.
// A subscriber whose buffer is full has the event dropped rather than
// stalling the publisher.
func (b *Bus) Publish(t EventType, payload any) {
	evt := Event{Type: t, Payload: payload, Timestamp: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.Ch <- evt:
		default:
		}
	}
}

func generateID(n int) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "sub-0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{digits[n%len(digits)]}, buf...)
		n /= len(digits)
	}
	return "sub-" + string(buf)
}
