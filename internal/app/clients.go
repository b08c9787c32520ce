package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/routemill-backend/internal/data/cache"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/realtime/bus"
)

// Clients holds the optional redis-backed infrastructure. Every field is nil
// when REDIS_ADDR is unset.
type Clients struct {
	Redis  *goredis.Client
	Cache  cache.Cache
	SSEBus bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; stats cache disabled and realtime stays in-process")
		return Clients{}, nil
	}
	rdb, err := cache.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	sseBus, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
	}
	return Clients{
		Redis:  rdb,
		Cache:  cache.NewRedisCache(log, rdb, "routemill:"),
		SSEBus: sseBus,
	}, nil
}

func (c Clients) Close() {
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
