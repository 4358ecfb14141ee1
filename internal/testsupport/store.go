package testsupport

import (
	"context"
	"testing"
	"time"

	"glacia/internal/config"
	"glacia/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewImageRecord builds and persists an image record for tests.
func NewImageRecord(t testing.TB, store *history.Store, owner, prompt string, createdAt time.Time) *history.Record {
	t.Helper()

	record := history.NewRecord(owner, createdAt, prompt, nil, history.NewImageMedia("aGVsbG8=", "image/png"))
	if err := store.Put(context.Background(), owner, record); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
	return record
}

// NewVideoRecord builds and persists a video record for tests. Video
// records carry no media payload.
func NewVideoRecord(t testing.TB, store *history.Store, owner, prompt string, createdAt time.Time) *history.Record {
	t.Helper()

	record := history.NewRecord(owner, createdAt, prompt, nil, history.NewVideoMedia())
	if err := store.Put(context.Background(), owner, record); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
	return record
}
