package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/payconsole/pkg/eventbus"
)

// MemoryEventBus dispatches events synchronously to handlers registered in
// the same process.
type MemoryEventBus struct {
	handlers  map[eventbus.EventType][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []eventbus.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers:  make(map[eventbus.EventType][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]eventbus.Event, 0),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType eventbus.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
// Handler errors and panics are logged, never returned.
func (b *MemoryEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	eventType := eventbus.EventType(event.Type())

	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[eventType]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("panic recovered in event handler", "type", eventType, "panic", r)
				}
			}()
			if err := handler(ctx, event); err != nil {
				b.logger.Error("failed to process event", "type", eventType, "error", err)
			}
		}()
	}
	return nil
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]eventbus.Event, 0)
}

// Published returns a copy of the events emitted so far.
func (b *MemoryEventBus) Published() []eventbus.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
