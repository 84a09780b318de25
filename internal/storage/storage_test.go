package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exerciseKeyValue(t *testing.T, kv KeyValue) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "renzo_user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	if err := kv.Set(ctx, "renzo_user", `{"id":"user-1"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "renzo_user", `{"id":"user-2"}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, err := kv.Get(ctx, "renzo_user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != `{"id":"user-2"}` {
		t.Fatalf("expected overwritten value, got %q", value)
	}

	if err := kv.Delete(ctx, "renzo_user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, "renzo_user"); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
	if _, err := kv.Get(ctx, "renzo_user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseKeyValue(t, store)
	if store.Has("renzo_user") {
		t.Fatal("expected key to be gone")
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseKeyValue(t, NewFileStore(path))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	if err := NewFileStore(path).Set(ctx, "renzo_user", "value"); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, err := NewFileStore(path).Get(ctx, "renzo_user")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if value != "value" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx := context.Background()
	store := NewFileStore(path)

	if _, err := store.Get(ctx, "renzo_user"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	if err := store.Set(ctx, "renzo_user", "fresh"); err != nil {
		t.Fatalf("set over corrupt file: %v", err)
	}
	value, err := store.Get(ctx, "renzo_user")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if value != "fresh" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestFileStoreDeleteResetsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx := context.Background()
	store := NewFileStore(path)

	if err := store.Delete(ctx, "renzo_user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "renzo_user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after reset, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseKeyValue(t, store)

	if err := store.Set(ctx, "renzo_user", "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, err := reopened.Get(ctx, "renzo_user")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if value != "persisted" {
		t.Fatalf("unexpected value %q", value)
	}
}
