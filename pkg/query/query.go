// Package query is the console's response cache. Reads go through Fetch,
// which serves entries younger than their stale window and otherwise runs
// the loader once per key. Mutations call Invalidate so the next read
// refetches, and the invalidation is broadcast to other console instances
// over the event bus.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached JSON response and the time it was fetched.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Store persists entries. Implementations live in infra/cache.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	// DeletePrefix removes prefix and every key below it, segment-wise.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Observer receives cache outcomes, typically for metrics.
type Observer interface {
	CacheResult(resource string, hit bool)
	Invalidated(prefix string, removed int)
}

type nopObserver struct{}

func (nopObserver) CacheResult(string, bool) {}
func (nopObserver) Invalidated(string, int)  {}

// Cache coordinates a Store, in-flight deduplication and invalidation.
type Cache struct {
	store    Store
	bus      eventbus.Bus
	origin   string
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	inflight   singleflight.Group
	generation atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithBus broadcasts invalidations on bus.
func WithBus(bus eventbus.Bus) Option { return func(c *Cache) { c.bus = bus } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.logger = l } }

// WithObserver reports hits, misses and invalidations.
func WithObserver(o Observer) Option { return func(c *Cache) { c.observer = o } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithOrigin sets the instance id stamped on broadcast invalidations.
func WithOrigin(origin string) Option { return func(c *Cache) { c.origin = origin } }

// New creates a cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		origin:   uuid.NewString(),
		logger:   slog.Default(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "query-cache")
	return c
}

// Origin is the id this instance stamps on invalidation events.
func (c *Cache) Origin() string { return c.origin }

// Fetch returns the cached value for key when it is younger than staleTime.
// Otherwise it calls fn, at most once at a time per key, and caches the
// result. Errors are returned to every waiting caller and never cached.
func Fetch[T any](
	ctx context.Context,
	c *Cache,
	key Key,
	staleTime time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	k := key.String()

	if entry, ok, err := c.store.Get(ctx, k); err != nil {
		c.logger.Warn("cache read failed", "key", k, "error", err)
	} else if ok && c.now().Sub(entry.FetchedAt) < staleTime {
		var v T
		if err := json.Unmarshal(entry.Data, &v); err == nil {
			c.observer.CacheResult(key.Resource(), true)
			return v, nil
		}
		c.logger.Warn("cached entry undecodable, refetching", "key", k)
	}
	c.observer.CacheResult(key.Resource(), false)

	res, err, shared := c.inflight.Do(k, func() (any, error) {
		gen := c.generation.Load()
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if gen != c.generation.Load() {
			// invalidated while loading; serve the result but do not cache it
			return v, nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			c.logger.Warn("cache encode failed", "key", k, "error", err)
			return v, nil
		}
		if err := c.store.Set(ctx, k, Entry{Data: data, FetchedAt: c.now()}, staleTime); err != nil {
			c.logger.Warn("cache write failed", "key", k, "error", err)
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		c.logger.Debug("joined in-flight fetch", "key", k)
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("query: unexpected cached type %T for %s", res, k)
	}
	return v, nil
}

// Invalidate drops every entry under the given prefixes and broadcasts the
// invalidation. Broadcast failures are logged only.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...Key) {
	if len(prefixes) == 0 {
		return
	}
	strs := c.drop(ctx, prefixes)
	if c.bus == nil {
		return
	}
	evt := eventbus.QueryInvalidated{Origin: c.origin, Prefixes: strs, At: c.now()}
	if err := c.bus.Emit(ctx, evt); err != nil {
		c.logger.Warn("failed to broadcast invalidation", "prefixes", strs, "error", err)
	}
}

func (c *Cache) drop(ctx context.Context, prefixes []Key) []string {
	c.generation.Add(1)
	strs := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		s := p.String()
		strs = append(strs, s)
		n, err := c.store.DeletePrefix(ctx, s)
		if err != nil {
			c.logger.Warn("cache invalidation failed", "prefix", s, "error", err)
			continue
		}
		c.observer.Invalidated(p.Resource(), n)
		c.logger.Debug("cache invalidated", "prefix", s, "removed", n)
	}
	return strs
}

// Subscribe applies invalidations broadcast by other instances. Events this
// instance emitted are ignored, and applying one never re-broadcasts it.
func (c *Cache) Subscribe(bus eventbus.Bus) {
	bus.Register(eventbus.QueryInvalidatedType, func(ctx context.Context, e eventbus.Event) error {
		var evt eventbus.QueryInvalidated
		switch v := e.(type) {
		case eventbus.QueryInvalidated:
			evt = v
		case *eventbus.QueryInvalidated:
			evt = *v
		default:
			return fmt.Errorf("query: unexpected event %T", e)
		}
		if evt.Origin == c.origin {
			return nil
		}
		keys := make([]Key, 0, len(evt.Prefixes))
		for _, p := range evt.Prefixes {
			keys = append(keys, ParseKey(p))
		}
		c.drop(ctx, keys)
		return nil
	})
}

// ParseKey splits a key string produced by Key.String.
func ParseKey(s string) Key {
	if s == "" {
		return Key{}
	}
	return Key(splitKey(s))
}
