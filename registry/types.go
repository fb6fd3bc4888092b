package registry

import "github.com/wippyai/webbridge"

// Principal is the id of the originally bound instance.
const Principal = 0

// EventType identifies an instance lifecycle transition.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDisposed
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDisposed:
		return "disposed"
	}
	return "unknown"
}

// Event represents an instance lifecycle event.
type Event struct {
	Binding webbridge.Binding
	ID      int
	Type    EventType
}

// Observer receives notifications about instance lifecycle events.
type Observer interface {
	OnInstanceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnInstanceEvent calls f(e).
func (f ObserverFunc) OnInstanceEvent(e Event) { f(e) }
