package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/repository"
)

// MemoryRepository keeps the audit log in process, newest first on List.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []eventbus.AdminAction
	seen    map[string]struct{}
}

var _ repository.AuditRepository = (*MemoryRepository)(nil)

func NewMemory() *MemoryRepository {
	return &MemoryRepository{seen: make(map[string]struct{})}
}

func (r *MemoryRepository) Append(_ context.Context, a eventbus.AdminAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[a.ID]; ok {
		return nil
	}
	r.seen[a.ID] = struct{}{}
	r.entries = append(r.entries, a)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, f repository.AuditFilter) ([]eventbus.AdminAction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	limit := f.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	out := make([]eventbus.AdminAction, 0)
	for _, a := range r.entries {
		if f.Action != "" && a.Action != f.Action {
			continue
		}
		if f.Actor != "" && a.Actor != f.Actor {
			continue
		}
		if f.Resource != "" && a.Resource != f.Resource {
			continue
		}
		if !f.Since.IsZero() && a.At.Before(f.Since) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
