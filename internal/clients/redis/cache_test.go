package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/platform/logger"
)

func testCache(t *testing.T) Cache {
	t.Helper()
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c, err := NewCache(logger.Nop(), CacheConfig{Addr: addr, TTL: time.Minute, Namespace: "test-" + uuid.NewString()})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewCacheRequiresAddr(t *testing.T) {
	if _, err := NewCache(logger.Nop(), CacheConfig{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
	if _, err := NewCache(nil, CacheConfig{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error for missing logger")
	}
}

func TestCacheRoundTripAndInvalidate(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	type stats struct {
		Total int `json:"total"`
	}
	if err := c.Set(ctx, "analytics:dashboard", stats{Total: 7}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "species:list", stats{Total: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got stats
	ok, err := c.Get(ctx, "analytics:dashboard", &got)
	if err != nil || !ok || got.Total != 7 {
		t.Fatalf("Get: ok=%v got=%+v err=%v", ok, got, err)
	}

	if err := c.InvalidatePrefix(ctx, "analytics:"); err != nil {
		t.Fatalf("InvalidatePrefix: %v", err)
	}
	if ok, _ := c.Get(ctx, "analytics:dashboard", &got); ok {
		t.Fatalf("entry survived invalidation")
	}
	if ok, _ := c.Get(ctx, "species:list", &got); !ok {
		t.Fatalf("unrelated entry invalidated")
	}
}
