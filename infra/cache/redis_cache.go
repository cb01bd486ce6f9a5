package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a query.Store shared by every console instance pointing at
// the same Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCache wraps an existing client. prefix namespaces every key.
func NewRedisCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger.With("cache", "redis")}
}

func (r *RedisCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisCache) Get(ctx context.Context, key string) (query.Entry, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return query.Entry{}, false, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return query.Entry{}, false, err
	}
	var entry query.Entry
	if err := json.Unmarshal(val, &entry); err != nil {
		r.logger.Error("Redis cache unmarshal error", "key", key, "error", err)
		return query.Entry{}, false, err
	}
	return entry, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, entry query.Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "key", key, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "key", key, "ttl", ttl)
	return nil
}

// DeletePrefix removes the exact key and everything under it using SCAN, so
// it never blocks the server the way KEYS would.
func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	if prefix != "" {
		n, err := r.client.Del(ctx, r.key(prefix)).Result()
		if err != nil {
			return 0, err
		}
		deleted += int(n)
	}

	pattern := escapeGlob(r.prefix) + "*"
	if prefix != "" {
		pattern = escapeGlob(r.key(prefix)+query.Separator) + "*"
	}
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	r.logger.Debug("Redis cache prefix deleted", "prefix", prefix, "count", deleted)
	return deleted, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

var _ query.Store = (*RedisCache)(nil)
