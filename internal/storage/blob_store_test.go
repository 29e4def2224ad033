package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *BlobStore {
	t.Helper()
	store, err := NewBlobStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewBlobStore error: %v", err)
	}
	return store
}

func TestBlobStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)
	content := []byte("png bytes here")

	if err := store.Save("image.png", content); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := store.Load("image.png")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("loaded %q, want %q", got, content)
	}
}

func TestBlobStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("key", []byte("old")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save("key", []byte("new")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := store.Load("key")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestBlobStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("nope.png"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestBlobStore_RemoveIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("gone.png", []byte("x")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Remove("gone.png"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := store.Remove("gone.png"); err != nil {
		t.Fatalf("second Remove error: %v", err)
	}
	if _, err := store.Load("gone.png"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound after remove, got %v", err)
	}
}

func TestBlobStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []string{"", "../escape", "a/b", `a\b`, "x..y"} {
		if err := store.Save(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Save(%q): expected ErrInvalidKey, got %v", key, err)
		}
		if _, err := store.Load(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Load(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestNewBlobStore_EmptyRoot(t *testing.T) {
	if _, err := NewBlobStore("", nil); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestNewBlobStore_NestedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	if _, err := NewBlobStore(root, nil); err != nil {
		t.Fatalf("expected nested root to be created, got %v", err)
	}
}
