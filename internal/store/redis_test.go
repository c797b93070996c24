package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, "sess-test")
	if err := s.Clear(ctx, KeyGuestCart); err != nil {
		t.Fatalf("pre-clear: %v", err)
	}

	if _, err := s.Load(ctx, KeyGuestCart); !errors.Is(err, ErrNoValue) {
		t.Fatalf("load of absent key: err = %v, want ErrNoValue", err)
	}
	if err := s.Save(ctx, KeyGuestCart, []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, KeyGuestCart)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"items":[]}` {
		t.Fatalf("Load = %q", got)
	}
	if err := s.Clear(ctx, KeyGuestCart); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Load(ctx, KeyGuestCart); !errors.Is(err, ErrNoValue) {
		t.Fatalf("load after clear: err = %v, want ErrNoValue", err)
	}
}
