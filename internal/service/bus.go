package service

import (
	"sync"
	"time"
)

// Event reports a finished render.
type Event struct {
	Resource string        // "renders"
	Action   string        // "ok", "partial", "failed"
	ID       string        // render ID
	Country  string        // requested country
	Duration time.Duration // wall time of the render
	At       time.Time
}

// recentEvents is how many events Recent keeps.
const recentEvents = 20

// EventBus is a simple fan-out pub/sub for render events.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	recent []Event
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.Lock()
	b.recent = append(b.recent, e)
	if len(b.recent) > recentEvents {
		b.recent = b.recent[len(b.recent)-recentEvents:]
	}
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
	b.mu.Unlock()
}

// Recent returns the latest events, newest first.
func (b *EventBus) Recent() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.recent))
	for i, e := range b.recent {
		out[len(out)-1-i] = e
	}
	return out
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
