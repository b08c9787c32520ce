package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

func TestNoopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := Noop()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Noop Get should miss: ok=%v err=%v", ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRedisCacheIntegration(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR=host:port to run redis cache integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "routemill_it_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ":"
	c := NewRedisCache(logger.Nop(), rdb, prefix)
	t.Cleanup(func() {
		keys, _ := rdb.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(context.Background(), keys...).Err()
		}
	})

	if _, ok, err := c.Get(ctx, "route:a"); ok || err != nil {
		t.Fatalf("Get before Set: ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "route:a", []byte(`{"n":1}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "route:b", []byte(`{"n":2}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "route:a")
	if err != nil || !ok || string(got) != `{"n":1}` {
		t.Fatalf("Get after Set: val=%q ok=%v err=%v", got, ok, err)
	}

	// keys land under the prefix
	raw, err := rdb.Get(ctx, prefix+"route:a").Result()
	if err != nil || raw != `{"n":1}` {
		t.Fatalf("prefixed key: val=%q err=%v", raw, err)
	}
	if n, err := rdb.Exists(ctx, "route:a").Result(); err != nil || n != 0 {
		t.Fatalf("unprefixed key should not exist: n=%d err=%v", n, err)
	}
	ttl, err := rdb.TTL(ctx, prefix+"route:a").Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl: %s err=%v", ttl, err)
	}

	if err := c.Delete(ctx); err != nil {
		t.Fatalf("Delete(no keys): %v", err)
	}
	if err := c.Delete(ctx, "route:a", "route:b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, k := range []string{"route:a", "route:b"} {
		if _, ok, err := c.Get(ctx, k); ok || err != nil {
			t.Fatalf("Get(%s) after Delete: ok=%v err=%v", k, ok, err)
		}
	}
}

func TestNewRedisCacheDefaultPrefix(t *testing.T) {
	c := NewRedisCache(logger.Nop(), nil, "").(*redisCache)
	if c.prefix != "routemill:" {
		t.Fatalf("default prefix: %q", c.prefix)
	}
}

func TestDialRequiresAddr(t *testing.T) {
	if _, err := Dial(context.Background(), "  "); err == nil {
		t.Fatalf("Dial with empty addr should fail")
	}
}
