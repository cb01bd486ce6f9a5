// Package tabs loads tabbed screens lazily: only the selected tab's data is
// ever fetched.
package tabs

import (
	"context"
	"fmt"
	"sync"
)

// Loader fetches the data shown by one tab.
type Loader func(ctx context.Context) (any, error)

// Tabs is the state of a tabbed screen.
type Tabs struct {
	mu      sync.Mutex
	order   []string
	loaders map[string]Loader
	active  string
	visited map[string]bool
}

// New creates tabs in the given order; the first one is active. Every name
// in order must have a loader.
func New(loaders map[string]Loader, order ...string) (*Tabs, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("tabs: at least one tab is required")
	}
	for _, name := range order {
		if loaders[name] == nil {
			return nil, fmt.Errorf("tabs: no loader for %q", name)
		}
	}
	return &Tabs{
		order:   order,
		loaders: loaders,
		active:  order[0],
		visited: make(map[string]bool),
	}, nil
}

// Names lists the tabs in display order.
func (t *Tabs) Names() []string {
	return append([]string(nil), t.order...)
}

// Active returns the selected tab.
func (t *Tabs) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Switch selects name and runs its loader. Other tabs are not touched. An
// empty name reloads the active tab.
func (t *Tabs) Switch(ctx context.Context, name string) (any, error) {
	t.mu.Lock()
	if name == "" {
		name = t.active
	}
	loader, ok := t.loaders[name]
	if !ok {
		t.mu.Unlock()
		return nil, fmt.Errorf("tabs: unknown tab %q", name)
	}
	t.active = name
	t.visited[name] = true
	t.mu.Unlock()

	return loader(ctx)
}

// Visited reports whether name has ever been selected.
func (t *Tabs) Visited(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visited[name]
}
