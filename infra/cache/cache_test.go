package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"log/slog"

	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSetExpire(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close() //nolint: errcheck
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "admin/fee-rules")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := query.Entry{Data: []byte(`[1,2]`), FetchedAt: time.Now()}
	require.NoError(t, c.Set(ctx, "admin/fee-rules", entry, time.Minute))
	got, ok, err := c.Get(ctx, "admin/fee-rules")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[1,2]`, string(got.Data))

	require.NoError(t, c.Set(ctx, "short", entry, -time.Second))
	_, ok, _ = c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestMemoryCache_DeletePrefixRespectsSegments(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close() //nolint: errcheck
	ctx := context.Background()
	entry := query.Entry{Data: []byte(`{}`)}

	for _, k := range []string{"admin/fee-rules", "admin/fee-rules/version=1", "admin/fee-rules-archive", "wallet"} {
		require.NoError(t, c.Set(ctx, k, entry, time.Minute))
	}

	n, err := c.DeletePrefix(ctx, "admin/fee-rules")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())

	n, err = c.DeletePrefix(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `pc:merchants/search=a\*b\?`, escapeGlob("pc:merchants/search=a*b?"))
}

// Runs against a real server when REDIS_TEST_URL is set.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close() //nolint: errcheck

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewRedisCache(client, fmt.Sprintf("pc-test-%d:", time.Now().UnixNano()), logger)
	ctx := context.Background()

	entry := query.Entry{Data: []byte(`{"ok":true}`), FetchedAt: time.Now().UTC()}
	require.NoError(t, c.Set(ctx, "merchants", entry, time.Minute))
	require.NoError(t, c.Set(ctx, "merchants/id=1", entry, time.Minute))
	require.NoError(t, c.Set(ctx, "wallet", entry, time.Minute))

	got, ok, err := c.Get(ctx, "merchants/id=1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"ok":true}`, string(got.Data))

	n, err := c.DeletePrefix(ctx, "merchants")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err = c.Get(ctx, "wallet")
	require.NoError(t, err)
	assert.True(t, ok)
	_, _ = c.DeletePrefix(ctx, "")
}
