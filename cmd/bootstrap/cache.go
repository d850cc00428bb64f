package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slot-reservation-engine/internal/infra/cache"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var CacheModule = fx.Module("cache",
	fx.Provide(
		NewCacheBackend,
		fx.Annotate(
			NewCapacityCache,
			fx.As(new(shared.CapacityCache)),
		),
	),
)

func NewCacheBackend(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (cache.Backend, error) {
	var backend cache.Backend

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		backend = cache.NewRedisBackend(rdb, cache.WithKeyPrefix(cfg.Cache.KeyPrefix))
		logger.Info("capacity cache backend", "backend", "redis", "addr", cfg.Cache.RedisAddr)
	case config.CacheMemory, "":
		mem := cache.NewMemoryBackend(cache.WithCleanupEvery(cfg.Cache.CleanupEvery))
		mem.StartJanitor()
		backend = mem
		logger.Info("capacity cache backend", "backend", "memory")
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return backend.Close()
		},
	})
	return backend, nil
}

func NewCapacityCache(backend cache.Backend, cfg config.Config) *cache.CapacityCache {
	return cache.NewCapacityCache(backend, cfg.Cache)
}
