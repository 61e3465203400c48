package testsupport

import (
	"context"
	"testing"

	"mnemosyne/internal/config"
	"mnemosyne/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedContent inserts a capture for tests using the provided store.
func SeedContent(t testing.TB, st *store.Store, content store.Content) int64 {
	t.Helper()

	id, err := st.Insert(context.Background(), content)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return id
}
