package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCacheRejectsBadInputWithoutDialing(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, "qualtrack:")

	if _, _, err := cache.Get(context.Background(), "  "); err == nil {
		t.Fatalf("Get() expected error for blank key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := cache.Set(ctx, "dashboard:summary", "{}", time.Minute); err == nil {
		t.Fatalf("Set() expected error for cancelled context")
	}
}

// Needs a live server: QT_TEST_REDIS_ADDR=127.0.0.1:6379 go test ./internal/infrastructure/cache
func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("QT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("QT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	cache := NewRedisCache(client, "qualtrack-test:")

	if err := cache.Set(ctx, "dashboard:summary", `{"total":3}`, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := cache.Get(ctx, "dashboard:summary")
	if err != nil || !found || value != `{"total":3}` {
		t.Fatalf("Get() = %q found=%v err=%v", value, found, err)
	}
	if raw, err := client.Get(ctx, "qualtrack-test:dashboard:summary").Result(); err != nil || raw != value {
		t.Fatalf("prefixed key = %q err=%v", raw, err)
	}

	if err := cache.Delete(ctx, "dashboard:summary"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := cache.Get(ctx, "dashboard:summary"); found {
		t.Fatalf("Get() after delete found entry")
	}
}
