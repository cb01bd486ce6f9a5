package eventbus

import (
	"time"
)

const (
	// QueryInvalidatedType is emitted after a successful mutation so other
	// console instances drop the same cached queries.
	QueryInvalidatedType EventType = "query.invalidated"
	// AdminActionType records every mutation an operator issued.
	AdminActionType EventType = "admin.action"
)

// QueryInvalidated carries the key prefixes dropped by a mutation.
type QueryInvalidated struct {
	Origin   string    `json:"origin"`
	Prefixes []string  `json:"prefixes"`
	At       time.Time `json:"at"`
}

func (e QueryInvalidated) Type() string { return QueryInvalidatedType.String() }

// Outcome of an admin action.
type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeDeclined  Outcome = "DECLINED"
)

// AdminAction is the audit record of a console mutation.
type AdminAction struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

func (e AdminAction) Type() string { return AdminActionType.String() }

// EventTypes maps every known event type to a constructor used when decoding
// envelopes from durable buses.
var EventTypes = map[EventType]func() Event{
	QueryInvalidatedType: func() Event { return &QueryInvalidated{} },
	AdminActionType:      func() Event { return &AdminAction{} },
}
