package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test unless CATADMIN_TEST_REDIS_URL is set.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("CATADMIN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: CATADMIN_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCache(RedisCacheOptions{URL: url, Prefix: "catadmin-test:", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()
	ctx := context.Background()
	_ = cache.Clear(ctx)

	if err := cache.Set(ctx, "categories:flat", []byte("snapshot"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := cache.Get(ctx, "categories:flat")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "snapshot" {
		t.Errorf("Get returned %q", got)
	}

	if err := cache.DeleteByPrefix(ctx, "categories:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}
	if _, err := cache.Get(ctx, "categories:flat"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisCacheOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
}
