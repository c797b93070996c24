package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	if _, err := pool.Exec(ctx, `TRUNCATE kv_entries`); err != nil {
		t.Fatalf("truncate kv_entries: %v", err)
	}

	s := NewPostgres(pool, "sess-a")
	other := NewPostgres(pool, "sess-b")

	if _, err := s.Load(ctx, KeyGuestCart); !errors.Is(err, ErrNoValue) {
		t.Fatalf("load of absent key: err = %v, want ErrNoValue", err)
	}
	if err := s.Save(ctx, KeyGuestCart, []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, KeyGuestCart, []byte(`{"items":[1]}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Load(ctx, KeyGuestCart)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"items":[1]}` {
		t.Fatalf("Load = %q", got)
	}

	// Sessions do not see each other's keys.
	if _, err := other.Load(ctx, KeyGuestCart); !errors.Is(err, ErrNoValue) {
		t.Fatalf("cross-session load: err = %v, want ErrNoValue", err)
	}

	if err := s.Clear(ctx, KeyGuestCart); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Load(ctx, KeyGuestCart); !errors.Is(err, ErrNoValue) {
		t.Fatalf("load after clear: err = %v, want ErrNoValue", err)
	}
}
