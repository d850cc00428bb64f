package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend shares cache entries between server processes.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

type RedisOption func(*RedisBackend)

func WithKeyPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) {
		b.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisBackend(rdb *redis.Client, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		rdb:    rdb,
		prefix: "slotcache",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RedisBackend) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + ":" + k
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool) {
	v, err := b.rdb.Get(ctx, b.key(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed, falling back to store", "key", key, "error", err.Error())
		}
		return "", false
	}
	return v, true
}

func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := b.rdb.Set(ctx, b.key(key), value, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err.Error())
	}
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.rdb.Del(ctx, full...).Err(); err != nil {
		slog.Warn("cache invalidation failed, entries expire by ttl", "keys", keys, "error", err.Error())
	}
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
