package audit

import (
	"time"

	"github.com/amirasaad/payconsole/pkg/eventbus"
)

// Entry is a row of admin_audit_log.
type Entry struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Action     string `gorm:"type:varchar(64);index;not null"`
	Resource   string `gorm:"type:varchar(64)"`
	ResourceID string
	Actor      string `gorm:"index"`
	Outcome    string `gorm:"type:varchar(16);not null"`
	Detail     string
	At         time.Time `gorm:"index"`
}

func (Entry) TableName() string {
	return "admin_audit_log"
}

func fromEvent(a eventbus.AdminAction) Entry {
	return Entry{
		ID:         a.ID,
		Action:     a.Action,
		Resource:   a.Resource,
		ResourceID: a.ResourceID,
		Actor:      a.Actor,
		Outcome:    string(a.Outcome),
		Detail:     a.Detail,
		At:         a.At,
	}
}

func (e Entry) toEvent() eventbus.AdminAction {
	return eventbus.AdminAction{
		ID:         e.ID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Actor:      e.Actor,
		Outcome:    eventbus.Outcome(e.Outcome),
		Detail:     e.Detail,
		At:         e.At,
	}
}
