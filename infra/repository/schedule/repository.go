// Package schedule stores report schedules.
package schedule

import (
	"context"
	"time"

	infrarepo "github.com/amirasaad/payconsole/infra/repository"
	"github.com/amirasaad/payconsole/pkg/domain/report"
	"github.com/amirasaad/payconsole/pkg/repository"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// New returns a ScheduleRepository backed by db.
func New(db *gorm.DB) repository.ScheduleRepository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, s report.Schedule) error {
	m := fromDomain(s)
	return infrarepo.MapError("create schedule", r.db.WithContext(ctx).Create(&m).Error)
}

func (r *gormRepository) Get(ctx context.Context, id string) (report.Schedule, error) {
	var m Schedule
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return report.Schedule{}, infrarepo.MapError("get schedule", err)
	}
	return m.toDomain(), nil
}

func (r *gormRepository) List(ctx context.Context) ([]report.Schedule, error) {
	var ms []Schedule
	if err := r.db.WithContext(ctx).Order("created_at").Find(&ms).Error; err != nil {
		return nil, infrarepo.MapError("list schedules", err)
	}
	return toDomainList(ms), nil
}

func (r *gormRepository) Due(ctx context.Context, now time.Time) ([]report.Schedule, error) {
	var ms []Schedule
	err := r.db.WithContext(ctx).
		Where("enabled = ? AND next_run_at <= ?", true, now).
		Order("next_run_at").
		Find(&ms).Error
	if err != nil {
		return nil, infrarepo.MapError("list due schedules", err)
	}
	return toDomainList(ms), nil
}

// Claim is a conditional update, so of several console instances polling
// the same table only one wins each run.
func (r *gormRepository) Claim(ctx context.Context, id string, expected, next time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Schedule{}).
		Where("id = ? AND enabled = ? AND next_run_at = ?", id, true, expected).
		Update("next_run_at", next)
	if res.Error != nil {
		return false, infrarepo.MapError("claim schedule", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) RecordRun(ctx context.Context, id string, ranAt time.Time, lastError string) error {
	res := r.db.WithContext(ctx).Model(&Schedule{}).Where("id = ?", id).Updates(map[string]any{
		"last_run_at": ranAt,
		"last_error":  lastError,
	})
	return infrarepo.Affected("record schedule run", res)
}

func (r *gormRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&Schedule{}).Where("id = ?", id).Update("enabled", enabled)
	return infrarepo.Affected("update schedule", res)
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Schedule{})
	return infrarepo.Affected("delete schedule", res)
}

func toDomainList(ms []Schedule) []report.Schedule {
	out := make([]report.Schedule, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].toDomain())
	}
	return out
}
