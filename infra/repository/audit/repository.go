// Package audit stores the admin.action log.
package audit

import (
	"context"

	infrarepo "github.com/amirasaad/payconsole/infra/repository"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLimit caps List when the filter sets no limit.
const DefaultLimit = 100

type gormRepository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repository.AuditRepository {
	return &gormRepository{db: db}
}

// Append inserts a. Events are delivered at least once, so a duplicate ID
// is ignored.
func (r *gormRepository) Append(ctx context.Context, a eventbus.AdminAction) error {
	e := fromEvent(a)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&e).Error
	return infrarepo.MapError("append audit entry", err)
}

func (r *gormRepository) List(ctx context.Context, f repository.AuditFilter) ([]eventbus.AdminAction, error) {
	q := r.db.WithContext(ctx).Model(&Entry{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.Resource != "" {
		q = q.Where("resource = ?", f.Resource)
	}
	if !f.Since.IsZero() {
		q = q.Where("at >= ?", f.Since)
	}
	limit := f.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	var entries []Entry
	if err := q.Order("at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, infrarepo.MapError("list audit entries", err)
	}
	out := make([]eventbus.AdminAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.toEvent())
	}
	return out, nil
}
