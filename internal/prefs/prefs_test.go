package prefs

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, KeyCredential); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	last, err := LastLogin(ctx, store)
	if err != nil || last != "" {
		t.Fatalf("expected empty last login got %q, %v", last, err)
	}

	if err := SetLastLogin(ctx, store, "alice"); err != nil {
		t.Fatalf("set last login: %v", err)
	}
	last, err = LastLogin(ctx, store)
	if err != nil || last != "alice" {
		t.Fatalf("expected alice got %q, %v", last, err)
	}

	if err := store.Put(ctx, KeyCredential, []byte{1, 2, 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, KeyCredential)
	if err != nil || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("unexpected credential %v, %v", got, err)
	}

	if err := store.Delete(ctx, KeyCredential); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, KeyCredential); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete got %v", err)
	}
	if err := store.Delete(ctx, KeyCredential); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseStore(t, store)

	if err := SetLastLogin(context.Background(), store, "bob"); err != nil {
		t.Fatalf("set last login: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	last, err := LastLogin(context.Background(), reopened)
	if err != nil || last != "bob" {
		t.Fatalf("expected value to survive reopen got %q, %v", last, err)
	}
}

func TestSealerRoundTrip(t *testing.T) {
	sealer, err := NewSealer("secret")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	sealed, err := sealer.Seal([]byte("token"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("token")) {
		t.Fatal("sealed value must not contain the plaintext")
	}
	plain, err := sealer.Open(sealed)
	if err != nil || string(plain) != "token" {
		t.Fatalf("open: %q, %v", plain, err)
	}

	other, _ := NewSealer("other")
	if _, err := other.Open(sealed); !errors.Is(err, ErrSealBroken) {
		t.Fatalf("expected ErrSealBroken got %v", err)
	}
	if _, err := sealer.Open([]byte("short")); !errors.Is(err, ErrSealBroken) {
		t.Fatalf("expected ErrSealBroken for short input got %v", err)
	}
	if _, err := NewSealer(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
