package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "token", "abc123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "abc123" {
		t.Fatalf("expected abc123, got %q", value)
	}

	if err := store.Remove(ctx, "token", "missing"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestMemoryStore_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("disk gone")

	store.FailGet = boom
	if _, err := store.Get(ctx, "token"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	store.FailGet = nil

	store.FailSet = boom
	if err := store.Set(ctx, "token", "x"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(ctx, "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "theme", "light"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err := store.Get(ctx, "theme")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "light" {
		t.Fatalf("expected light, got %q", value)
	}

	if err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := store.Remove(ctx, "theme", "token"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for _, key := range []string{"theme", "token"} {
		if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s removed, got %v", key, err)
		}
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(ctx, "signInTime", "1700000000000"); err != nil {
		t.Fatalf("set: %v", err)
	}
	store.Close()

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	value, err := reopened.Get(ctx, "signInTime")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if value != "1700000000000" {
		t.Fatalf("expected persisted value, got %q", value)
	}
}
