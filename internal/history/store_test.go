package history_test

import (
	"context"
	"testing"
	"time"

	"glacia/internal/history"
	"glacia/internal/testsupport"
)

func TestPutThenListIncludesRecordOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := history.NewRecord("a@x.com", time.UnixMilli(100), "make it glow", nil, history.NewImageMedia("cGF5bG9hZA==", "image/png"))

	// Repeated puts with the same id and payload must be a no-op in effect.
	for i := 0; i < 3; i++ {
		if err := store.Put(ctx, "a@x.com", record); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	records, err := store.ListByOwner(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	if records[0].ID != record.ID {
		t.Fatalf("unexpected record id %q", records[0].ID)
	}
}

func TestListByOwnerSortsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	r1 := history.NewRecord("a@x.com", time.UnixMilli(100), "first", nil, history.NewVideoMedia())
	r2 := history.NewRecord("a@x.com", time.UnixMilli(200), "second", nil, history.NewVideoMedia())
	// Insert oldest last so ordering cannot come from insertion order.
	if err := store.Put(ctx, "a@x.com", r2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "a@x.com", r1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	records, err := store.ListByOwner(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != r2.ID || records[1].ID != r1.ID {
		t.Fatalf("expected [%s %s], got [%s %s]", r2.ID, r1.ID, records[0].ID, records[1].ID)
	}

	other, err := store.ListByOwner(ctx, "b@y.com")
	if err != nil {
		t.Fatalf("ListByOwner for empty owner failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty slice for unknown owner, got %d records", len(other))
	}
}

func TestListByOwnerScopesToOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	mine := history.NewRecord("a@x.com", time.UnixMilli(100), "mine", nil, history.NewVideoMedia())
	theirs := history.NewRecord("b@y.com", time.UnixMilli(200), "theirs", nil, history.NewVideoMedia())
	if err := store.Put(ctx, "a@x.com", mine); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "b@y.com", theirs); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	records, err := store.ListByOwner(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != mine.ID {
		t.Fatalf("expected only owner's record, got %#v", records)
	}
}

func TestDeleteByIDIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewImageRecord(t, store, "a@x.com", "keep", time.UnixMilli(100))

	if err := store.DeleteByID(ctx, "a@x.com-does-not-exist"); err != nil {
		t.Fatalf("deleting a missing id must not error: %v", err)
	}

	records, err := store.ListByOwner(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("store changed by no-op delete: %d records", len(records))
	}

	if err := store.DeleteByID(ctx, record.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	records, err = store.ListByOwner(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected record removed, got %d", len(records))
	}
}

func TestRecordRoundTripPreservesPayloads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	source := &history.ImagePayload{Base64: "c291cmNlLWJ5dGVz", MimeType: "image/jpeg"}
	record := history.NewRecord("a@x.com", time.UnixMilli(100), "round trip", source, history.NewImageMedia("Z2VuLWJ5dGVz", "image/png"))
	if err := store.Put(ctx, "a@x.com", record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected record back")
	}
	if fetched.SourceImage == nil || fetched.SourceImage.Base64 != source.Base64 || fetched.SourceImage.MimeType != source.MimeType {
		t.Fatalf("source payload mangled: %#v", fetched.SourceImage)
	}
	if fetched.Generated.Type != history.MediaTypeImage {
		t.Fatalf("unexpected media type %q", fetched.Generated.Type)
	}
	if fetched.Generated.Image == nil || fetched.Generated.Image.Base64 != "Z2VuLWJ5dGVz" || fetched.Generated.Image.MimeType != "image/png" {
		t.Fatalf("generated payload mangled: %#v", fetched.Generated.Image)
	}
	if fetched.Prompt != "round trip" || fetched.Timestamp != 100 {
		t.Fatalf("metadata mangled: %#v", fetched)
	}
}

func TestVideoRecordStoresNoPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := history.NewRecord("a@x.com", time.UnixMilli(100), "animate", nil, history.NewVideoMedia())
	if err := store.Put(ctx, "a@x.com", record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Generated.Type != history.MediaTypeVideo {
		t.Fatalf("unexpected media type %q", fetched.Generated.Type)
	}
	if fetched.Generated.Image != nil {
		t.Fatalf("video record must not carry payload bytes: %#v", fetched.Generated.Image)
	}
}

func TestPutRejectsInvalidMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	record := history.NewRecord("a@x.com", time.UnixMilli(100), "bad", nil, history.GeneratedMedia{Type: history.MediaTypeImage})
	if err := store.Put(context.Background(), "a@x.com", record); err == nil {
		t.Fatal("expected validation error for image media without payload")
	}
}

func TestOpenSurvivesReopenWithExistingData(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	record := history.NewRecord("a@x.com", time.UnixMilli(100), "persist", nil, history.NewVideoMedia())
	if err := store.Put(context.Background(), "a@x.com", record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ListByOwner(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != record.ID {
		t.Fatalf("data lost across reopen: %#v", records)
	}
}

func TestOpenRefusesSecondProcessLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer first.Close()

	if _, err := history.Open(cfg); err == nil {
		t.Fatal("expected second open to fail while lock is held")
	}
}

func TestSharedMemoizesFirstHandle(t *testing.T) {
	first, err := history.Shared(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("Shared failed: %v", err)
	}

	// Later calls ignore their config and resolve the same handle.
	second, err := history.Shared(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("Shared failed on second call: %v", err)
	}
	if first != second {
		t.Fatal("Shared must return the same handle for the process")
	}
}
