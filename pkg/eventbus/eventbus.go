// Package eventbus defines the bus contract shared by console instances and
// the events they exchange.
package eventbus

import (
	"context"
)

// EventType names an event on the bus.
type EventType string

func (t EventType) String() string { return string(t) }

// Event is anything published on the bus.
type Event interface {
	Type() string
}

// HandlerFunc handles an event. A returned error is logged by the bus and,
// for the durable buses, sends the message to the dead-letter destination.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus publishes events and dispatches them to registered handlers.
type Bus interface {
	Emit(ctx context.Context, event Event) error
	Register(eventType EventType, handler HandlerFunc)
}
