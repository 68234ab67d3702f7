package events

import (
	"fmt"
	"log/slog"
)

// Handler receives a published event.
type Handler func(Event)

// SubscriptionID identifies one registration for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus is a synchronous in-process publish/subscribe channel.
// It is not safe for concurrent use; publish from the game loop only.
type Bus struct {
	handlers map[Name][]subscription
	next     SubscriptionID
	logger   *slog.Logger
}

// NewBus creates an empty bus. A nil logger falls back to slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: map[Name][]subscription{},
		logger:   logger,
	}
}

// Subscribe registers h for events named name and returns its ID.
func (b *Bus) Subscribe(name Name, h Handler) SubscriptionID {
	b.next++
	b.handlers[name] = append(b.handlers[name], subscription{id: b.next, handler: h})
	return b.next
}

// On registers a handler typed to a single event variant.
func On[E Event](b *Bus, h func(E)) SubscriptionID {
	var zero E
	return b.Subscribe(zero.EventName(), func(ev Event) {
		if e, ok := ev.(E); ok {
			h(e)
		}
	})
}

// Unsubscribe removes the registration. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(name Name, id SubscriptionID) {
	subs := b.handlers[name]
	for i, s := range subs {
		if s.id == id {
			b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// Publish delivers ev to every handler registered for its name, in
// registration order, before returning. Handlers registered or removed
// during delivery take effect from the next Publish.
func (b *Bus) Publish(ev Event) {
	name := ev.EventName()
	subs := b.handlers[name]
	if len(subs) == 0 {
		return
	}
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		b.deliver(name, s, ev)
	}
}

// deliver runs one handler, recovering a panic so later handlers still run.
func (b *Bus) deliver(name Name, s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", string(name),
				"subscription", uint64(s.id),
				"panic", fmt.Sprint(r))
		}
	}()
	s.handler(ev)
}

// ClearAll removes every registration.
func (b *Bus) ClearAll() {
	b.handlers = map[Name][]subscription{}
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name Name) int {
	return len(b.handlers[name])
}
