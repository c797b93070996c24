package store

import (
	"context"
	"errors"
	"testing"
)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if _, err := s.Load(ctx, KeyGuestCart); !errors.Is(err, ErrNoValue) {
		t.Fatalf("load of absent key: err = %v, want ErrNoValue", err)
	}

	payload := []byte(`{"items":[]}`)
	if err := s.Save(ctx, KeyGuestCart, payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, KeyGuestCart)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Load = %q, want %q", got, payload)
	}

	if err := s.Save(ctx, KeyGuestCart, []byte(`{"items":[1]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = s.Load(ctx, KeyGuestCart)
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if string(got) != `{"items":[1]}` {
		t.Fatalf("overwrite not applied, got %q", got)
	}
}

func TestFileClear(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := s.Clear(ctx, KeyToken); err != nil {
		t.Fatalf("clear of absent key: %v", err)
	}
	if err := s.Save(ctx, KeyToken, []byte("abc")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(ctx, KeyToken); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Load(ctx, KeyToken); !errors.Is(err, ErrNoValue) {
		t.Fatalf("load after clear: err = %v, want ErrNoValue", err)
	}
}

func TestFileRequiresDir(t *testing.T) {
	if _, err := NewFile("  "); err == nil {
		t.Fatal("expected error for blank state dir")
	}
}

func TestMemoryIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.Save(ctx, KeyUser, []byte("a")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, KeyUser)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got[0] = 'z' // mutating the returned slice must not touch stored state
	again, err := s.Load(ctx, KeyUser)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if string(again) != "a" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}
