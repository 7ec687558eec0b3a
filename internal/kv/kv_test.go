package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := New("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create kv store: %v", err)
	}
	return store, s
}

func TestNew(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := New("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestGetAllMissingCollection(t *testing.T) {
	store, s := setupTestStore(t)
	defer store.Close()
	defer s.Close()

	raw, err := store.GetAll(context.Background(), "pages")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil for never-written collection, got %q", raw)
	}
}

func TestSetAllGetAllRoundTrip(t *testing.T) {
	store, s := setupTestStore(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	payload := []byte(`[{"id":"pg_1"},{"id":"pg_2"}]`)

	if err := store.SetAll(ctx, "pages", payload); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}

	raw, err := store.GetAll(ctx, "pages")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if string(raw) != string(payload) {
		t.Errorf("expected %s, got %s", payload, raw)
	}
}

func TestCollectionIsolation(t *testing.T) {
	store, s := setupTestStore(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.SetAll(ctx, "pages", []byte(`[1]`)); err != nil {
		t.Fatalf("SetAll pages failed: %v", err)
	}
	if err := store.SetAll(ctx, "documents", []byte(`[2]`)); err != nil {
		t.Fatalf("SetAll documents failed: %v", err)
	}

	pages, err := store.GetAll(ctx, "pages")
	if err != nil {
		t.Fatalf("GetAll pages failed: %v", err)
	}
	if string(pages) != "[1]" {
		t.Errorf("pages collection polluted: %s", pages)
	}
}

func TestDelete(t *testing.T) {
	store, s := setupTestStore(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.SetAll(ctx, "events", []byte(`[1]`)); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}
	if err := store.Delete(ctx, "events"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	raw, err := store.GetAll(ctx, "events")
	if err != nil {
		t.Fatalf("GetAll after delete failed: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil after delete, got %s", raw)
	}
}
