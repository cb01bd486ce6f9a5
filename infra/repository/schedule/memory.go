package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/report"
	"github.com/amirasaad/payconsole/pkg/repository"
)

// MemoryRepository keeps schedules in process. Used when no database is
// configured and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]report.Schedule
}

var _ repository.ScheduleRepository = (*MemoryRepository)(nil)

func NewMemory() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]report.Schedule)}
}

func (r *MemoryRepository) Create(_ context.Context, s report.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; ok {
		return fmt.Errorf("create schedule %s: %w", s.ID, domain.ErrAlreadyExists)
	}
	r.items[s.ID] = s
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (report.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return report.Schedule{}, fmt.Errorf("get schedule %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]report.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]report.Schedule, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Due(_ context.Context, now time.Time) ([]report.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []report.Schedule
	for _, s := range r.items {
		if s.Due(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRunAt.Before(out[j].NextRunAt) })
	return out, nil
}

func (r *MemoryRepository) Claim(_ context.Context, id string, expected, next time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || !s.Enabled || !s.NextRunAt.Equal(expected) {
		return false, nil
	}
	s.NextRunAt = next
	r.items[id] = s
	return true, nil
}

func (r *MemoryRepository) RecordRun(_ context.Context, id string, ranAt time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return fmt.Errorf("record schedule run %s: %w", id, domain.ErrNotFound)
	}
	s.LastRunAt = &ranAt
	s.LastError = lastError
	r.items[id] = s
	return nil
}

func (r *MemoryRepository) SetEnabled(_ context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return fmt.Errorf("update schedule %s: %w", id, domain.ErrNotFound)
	}
	s.Enabled = enabled
	r.items[id] = s
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("delete schedule %s: %w", id, domain.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}
