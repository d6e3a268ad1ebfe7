//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func redisURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis url: %v", err)
	}
	return url
}

func TestRedisCache(t *testing.T) {
	c, err := NewRedisCache(redisURL(t), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Ping(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	if err := c.Set(ctx, "stripe:customer:7", "cus_1", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.Get(ctx, "stripe:customer:7")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "cus_1" {
		t.Errorf("expected cus_1, got %q", got)
	}

	if err := c.Delete(ctx, "stripe:customer:7"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "stripe:customer:7"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected cache miss, got %v", err)
	}
}
