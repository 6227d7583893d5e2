package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(CameraEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case CameraEvent:
		event.Publish(b.dispatcher, e)
	case AccessEvent:
		event.Publish(b.dispatcher, e)
	case BarrierStatusEvent:
		event.Publish(b.dispatcher, e)
	case SystemStatusEvent:
		event.Publish(b.dispatcher, e)
	case StatsEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e CameraEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CameraEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AccessEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BarrierStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SystemStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StatsEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
