package query_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/payconsole/infra/cache"
	infraeventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCache(t *testing.T, opts ...query.Option) (*query.Cache, *clock) {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	clk := &clock{now: time.Now()}
	opts = append([]query.Option{query.WithClock(clk.Now), query.WithLogger(testLogger())}, opts...)
	return query.New(store, opts...), clk
}

func TestKey(t *testing.T) {
	k := query.K("admin", "transactions").With("status", "FAILED").With("limit", 0).With("gateway", "")
	assert.Equal(t, "admin/transactions/status=FAILED", k.String())
	assert.True(t, k.HasPrefix(query.K("admin", "transactions")))
	assert.False(t, k.HasPrefix(query.K("admin", "fee-rules")))
	assert.False(t, query.K("admin").HasPrefix(k))
	assert.Equal(t, "admin/transactions", k.Resource())
	assert.Equal(t, k, query.ParseKey(k.String()))
}

func TestKey_Scope(t *testing.T) {
	stats := query.K("merchants", "dashboard", "stats")
	alice := stats.Scope("alice")
	bob := stats.Scope("bob")

	assert.Equal(t, "merchants/@alice/dashboard/stats", alice.String())
	assert.NotEqual(t, alice.String(), bob.String())
	assert.Equal(t, stats, stats.Scope(""))
	assert.Equal(t, "merchants/dashboard", alice.Resource())
	assert.Equal(t, "merchants/@a%2Fb/first", query.K("merchants", "first").Scope("a/b").String())

	// the bare root reaches every caller, a scoped prefix only its own
	assert.True(t, alice.HasPrefix(query.K("merchants")))
	assert.True(t, alice.HasPrefix(query.K("merchants", "dashboard").Scope("alice")))
	assert.False(t, bob.HasPrefix(query.K("merchants", "dashboard").Scope("alice")))
	assert.Equal(t, alice, query.ParseKey(alice.String()))
}

func TestFetch_ScopedKeysDoNotShareEntries(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	key := query.K("wallet", "balance")
	load := func(who string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return who, nil }
	}

	a, err := query.Fetch(ctx, c, key.Scope("merchant-a"), time.Minute, load("merchant-a"))
	require.NoError(t, err)
	b, err := query.Fetch(ctx, c, key.Scope("merchant-b"), time.Minute, load("merchant-b"))
	require.NoError(t, err)
	assert.Equal(t, "merchant-a", a)
	assert.Equal(t, "merchant-b", b)
}

func TestFetch_ServesFreshEntriesAndRefetchesStaleOnes(t *testing.T) {
	c, clk := newCache(t)
	ctx := context.Background()
	key := query.K("admin", "fee-versions")
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"v1"}, nil
	}

	v, err := query.Fetch(ctx, c, key, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, v)

	clk.Advance(30 * time.Second)
	_, err = query.Fetch(ctx, c, key, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	clk.Advance(31 * time.Second)
	_, err = query.Fetch(ctx, c, key, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	key := query.K("wallet")
	boom := errors.New("backend down")

	_, err := query.Fetch(ctx, c, key, time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := query.Fetch(ctx, c, key, time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetch_DeduplicatesConcurrentLoads(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := query.Fetch(ctx, c, query.K("merchants"), time.Minute, func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestInvalidate_DropsPrefixAndBroadcasts(t *testing.T) {
	bus := infraeventbus.NewWithMemory(testLogger())
	c, _ := newCache(t, query.WithBus(bus), query.WithOrigin("instance-a"))
	ctx := context.Background()
	calls := map[string]int{}
	load := func(name string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls[name]++
			return name, nil
		}
	}

	rules := query.K("admin", "fee-rules").With("version", "v1")
	wallet := query.K("wallet", "balance")
	_, _ = query.Fetch(ctx, c, rules, time.Minute, load("rules"))
	_, _ = query.Fetch(ctx, c, wallet, time.Minute, load("wallet"))

	c.Invalidate(ctx, query.K("admin", "fee-rules"))

	_, _ = query.Fetch(ctx, c, rules, time.Minute, load("rules"))
	_, _ = query.Fetch(ctx, c, wallet, time.Minute, load("wallet"))
	assert.Equal(t, 2, calls["rules"])
	assert.Equal(t, 1, calls["wallet"])

	published := bus.Published()
	require.Len(t, published, 1)
	evt := published[0].(eventbus.QueryInvalidated)
	assert.Equal(t, "instance-a", evt.Origin)
	assert.Equal(t, []string{"admin/fee-rules"}, evt.Prefixes)
}

func TestSubscribe_AppliesRemoteInvalidationsOnly(t *testing.T) {
	bus := infraeventbus.NewWithMemory(testLogger())
	a, _ := newCache(t, query.WithBus(bus), query.WithOrigin("a"))
	b, _ := newCache(t, query.WithOrigin("b"))
	b.Subscribe(bus)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (int, error) { calls++; return calls, nil }
	key := query.K("merchants", "list")

	_, _ = query.Fetch(ctx, b, key, time.Minute, load)
	a.Invalidate(ctx, query.K("merchants"))
	_, _ = query.Fetch(ctx, b, key, time.Minute, load)
	assert.Equal(t, 2, calls)

	// b's own events are ignored and nothing is re-emitted
	require.NoError(t, bus.Emit(ctx, eventbus.QueryInvalidated{Origin: "b", Prefixes: []string{"merchants"}}))
	_, _ = query.Fetch(ctx, b, key, time.Minute, load)
	assert.Equal(t, 2, calls)
	assert.Len(t, bus.Published(), 2)
}

func TestFetch_InvalidatedWhileLoadingIsNotCached(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	key := query.K("admin", "fee-rules")
	calls := 0

	_, err := query.Fetch(ctx, c, key, time.Minute, func(context.Context) (int, error) {
		calls++
		c.Invalidate(ctx, query.K("admin"))
		return 1, nil
	})
	require.NoError(t, err)

	_, err = query.Fetch(ctx, c, key, time.Minute, func(context.Context) (int, error) {
		calls++
		return 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
