package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amirasaad/payconsole/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event eventbus.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("envelope marshal failed: %w", err)
	}
	return envBytes, nil
}

// errUnknownType is returned by decodeEnvelope for types missing from
// eventbus.EventTypes.
type errUnknownType string

func (e errUnknownType) Error() string { return "unknown event type " + string(e) }

func decodeEnvelope(raw []byte) (eventbus.EventType, eventbus.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	eventType := eventbus.EventType(env.Type)
	constructor, ok := eventbus.EventTypes[eventType]
	if !ok {
		return eventType, nil, errUnknownType(env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return eventType, nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return eventType, evt, nil
}

// runHandlers calls every handler, recovering panics. It reports whether all
// of them succeeded.
func runHandlers(
	ctx context.Context,
	logger *slog.Logger,
	eventType eventbus.EventType,
	evt eventbus.Event,
	handlers []eventbus.HandlerFunc,
	msgID string,
) bool {
	success := true
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					success = false
					logger.Error("handler panic recovered", "panic", r, "event_type", eventType, "msg_id", msgID)
				}
			}()
			if err := h(ctx, evt); err != nil {
				success = false
				logger.Error("handler error", "error", err, "event_type", eventType, "msg_id", msgID)
			}
		}()
	}
	return success
}
