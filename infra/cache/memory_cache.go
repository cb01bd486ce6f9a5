package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/payconsole/pkg/query"
)

// MemoryCache is a process-local query.Store.
type MemoryCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	entry     query.Entry
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		done:    make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get returns the entry stored under key, if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (query.Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return query.Entry{}, false, nil
	}
	return e.entry, true, nil
}

// Set stores an entry for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, entry query.Entry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{entry: entry, expiresAt: time.Now().Add(ttl)}
	return nil
}

// DeletePrefix removes key prefix itself and every key below it.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if matchesPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func matchesPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return key == prefix || strings.HasPrefix(key, prefix+query.Separator)
}

var _ query.Store = (*MemoryCache)(nil)
