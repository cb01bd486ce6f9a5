// Package repository declares the console's local persistence. The backend
// owns every payment resource; only report schedules and the audit log of
// console actions are stored here.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/payconsole/pkg/domain/report"
	"github.com/amirasaad/payconsole/pkg/eventbus"
)

// ScheduleRepository stores report schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, s report.Schedule) error
	Get(ctx context.Context, id string) (report.Schedule, error)
	List(ctx context.Context) ([]report.Schedule, error)
	// Due lists enabled schedules whose next run is at or before now.
	Due(ctx context.Context, now time.Time) ([]report.Schedule, error)
	// Claim moves an enabled schedule's next run from expected to next. It
	// reports false when another runner already moved it or the schedule was
	// disabled or deleted meanwhile.
	Claim(ctx context.Context, id string, expected, next time.Time) (bool, error)
	// RecordRun stores the outcome of a run without touching anything an
	// operator may have changed while it ran.
	RecordRun(ctx context.Context, id string, ranAt time.Time, lastError string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
}

// AuditFilter narrows an audit log listing.
type AuditFilter struct {
	Action   string
	Actor    string
	Resource string
	Since    time.Time
	Limit    int
}

// AuditRepository stores admin.action events.
type AuditRepository interface {
	Append(ctx context.Context, a eventbus.AdminAction) error
	List(ctx context.Context, f AuditFilter) ([]eventbus.AdminAction, error)
}
