package studio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"glacia/internal/artifacts"
	"glacia/internal/history"
	"glacia/internal/identity"
	"glacia/internal/media/compositor"
	"glacia/internal/services/genmedia"
	"glacia/internal/studio"
	"glacia/internal/testsupport"
)

type fakeVideos struct {
	calls int
	err   error
}

func (f *fakeVideos) GenerateVideo(_ context.Context, _ string, _ *genmedia.ImageInput, outputPath string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return outputPath, nil
}

type fakeImages struct {
	result genmedia.ImageResult
	err    error
}

func (f *fakeImages) EditImage(context.Context, string, genmedia.ImageInput) (genmedia.ImageResult, error) {
	if f.err != nil {
		return genmedia.ImageResult{}, f.err
	}
	return f.result, nil
}

type fakeMerger struct {
	calls int
	err   error
}

func (f *fakeMerger) Merge(_ context.Context, _ compositor.Request, outputPath string, _ func(compositor.Progress)) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return outputPath, nil
}

type recordingHistory struct {
	records []*history.Record
}

func (r *recordingHistory) RecordCreation(_ context.Context, ownerKey, prompt string, source *history.ImagePayload, generated history.GeneratedMedia) *history.Record {
	record := history.NewRecord(ownerKey, time.Now(), prompt, source, generated)
	r.records = append(r.records, record)
	return record
}

func newOrchestrator(t *testing.T, videos studio.VideoGenerator, images studio.ImageEditor, merger studio.Merger) (*studio.Orchestrator, *identity.Provider, *recordingHistory) {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	provider := identity.NewProvider(cfg, nil)
	if _, err := provider.Bootstrap("ada", "ada@x.com"); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	session, err := artifacts.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	recorder := &recordingHistory{}
	return studio.New(cfg, provider, recorder, videos, images, merger, session, nil), provider, recorder
}

func TestCreateVideoWithoutSoundtrack(t *testing.T) {
	videos := &fakeVideos{}
	merger := &fakeMerger{}
	orch, provider, recorder := newOrchestrator(t, videos, &fakeImages{}, merger)

	result, err := orch.CreateVideo(context.Background(), studio.VideoRequest{Prompt: "a cat surfing"})
	if err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if result.Merged {
		t.Fatal("no soundtrack requested, result must not be merged")
	}
	if merger.calls != 0 {
		t.Fatalf("merger must not run, got %d calls", merger.calls)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(recorder.records))
	}
	record := recorder.records[0]
	if record.Generated.Type != history.MediaTypeVideo || record.Generated.Image != nil {
		t.Fatalf("video record must carry no payload: %#v", record.Generated)
	}

	profile, err := provider.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if profile.GenerationsLeft != 1 {
		t.Fatalf("expected quota decremented to 1, got %d", profile.GenerationsLeft)
	}
}

func TestCreateVideoMergesSoundtrack(t *testing.T) {
	videos := &fakeVideos{}
	merger := &fakeMerger{}
	orch, _, _ := newOrchestrator(t, videos, &fakeImages{}, merger)

	result, err := orch.CreateVideo(context.Background(), studio.VideoRequest{
		Prompt:    "a cat surfing",
		AudioPath: "/music/track.mp3",
		Volume:    0.6,
	})
	if err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if !result.Merged {
		t.Fatal("expected merged result")
	}
	if merger.calls != 1 {
		t.Fatalf("expected one merge, got %d", merger.calls)
	}
}

func TestCreateVideoFallsBackToSilentWhenMergeFails(t *testing.T) {
	videos := &fakeVideos{}
	merger := &fakeMerger{err: compositor.ErrRecordingFailed}
	orch, _, recorder := newOrchestrator(t, videos, &fakeImages{}, merger)

	result, err := orch.CreateVideo(context.Background(), studio.VideoRequest{
		Prompt:    "a cat surfing",
		AudioPath: "/music/track.mp3",
		Volume:    1,
	})
	if err != nil {
		t.Fatalf("merge failure must not fail the creation: %v", err)
	}
	if result.Merged {
		t.Fatal("failed merge must report unmerged result")
	}
	if result.ArtifactPath == "" {
		t.Fatal("silent video path must be kept")
	}
	if len(recorder.records) != 1 {
		t.Fatalf("creation must still be recorded, got %d records", len(recorder.records))
	}
}

func TestQuotaGateBlocksExhaustedFreePlan(t *testing.T) {
	videos := &fakeVideos{}
	orch, provider, _ := newOrchestrator(t, videos, &fakeImages{}, &fakeMerger{})

	profile, err := provider.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	profile.GenerationsLeft = 0
	if err := provider.Save(profile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err = orch.CreateVideo(context.Background(), studio.VideoRequest{Prompt: "anything"})
	if !errors.Is(err, identity.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if videos.calls != 0 {
		t.Fatalf("gate must run before generation, got %d calls", videos.calls)
	}
}

func TestGenerationFailureDoesNotConsumeQuota(t *testing.T) {
	videos := &fakeVideos{err: genmedia.ErrGenerationFailed}
	orch, provider, recorder := newOrchestrator(t, videos, &fakeImages{}, &fakeMerger{})

	_, err := orch.CreateVideo(context.Background(), studio.VideoRequest{Prompt: "a cat"})
	if !errors.Is(err, genmedia.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if len(recorder.records) != 0 {
		t.Fatalf("failed generation must not be recorded, got %d", len(recorder.records))
	}

	profile, err := provider.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if profile.GenerationsLeft != 2 {
		t.Fatalf("quota must be untouched, got %d", profile.GenerationsLeft)
	}
}

func TestCreateVideoRequiresPromptOrImage(t *testing.T) {
	orch, _, _ := newOrchestrator(t, &fakeVideos{}, &fakeImages{}, &fakeMerger{})

	_, err := orch.CreateVideo(context.Background(), studio.VideoRequest{})
	if !errors.Is(err, studio.ErrNothingToGenerate) {
		t.Fatalf("expected ErrNothingToGenerate, got %v", err)
	}
}

func TestEnhanceImageRecordsPayload(t *testing.T) {
	images := &fakeImages{result: genmedia.ImageResult{Base64: "bmV3", MimeType: "image/png", Text: "done"}}
	orch, _, recorder := newOrchestrator(t, &fakeVideos{}, images, &fakeMerger{})

	source := history.ImagePayload{Base64: "c3Jj", MimeType: "image/jpeg"}
	result, err := orch.EnhanceImage(context.Background(), studio.ImageRequest{Prompt: "add a hat", SourceImage: source})
	if err != nil {
		t.Fatalf("EnhanceImage failed: %v", err)
	}
	if result.Image.Base64 != "bmV3" || result.Text != "done" {
		t.Fatalf("unexpected result %#v", result)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one record, got %d", len(recorder.records))
	}
	record := recorder.records[0]
	if record.Generated.Type != history.MediaTypeImage || record.Generated.Image == nil || record.Generated.Image.Base64 != "bmV3" {
		t.Fatalf("image record must carry the generated payload: %#v", record.Generated)
	}
	if record.SourceImage == nil || record.SourceImage.Base64 != "c3Jj" {
		t.Fatalf("image record must carry the source payload: %#v", record.SourceImage)
	}
}

func TestEnhanceImageSurfacesBlockedGeneration(t *testing.T) {
	images := &fakeImages{err: genmedia.ErrGenerationBlocked}
	orch, _, recorder := newOrchestrator(t, &fakeVideos{}, images, &fakeMerger{})

	source := history.ImagePayload{Base64: "c3Jj", MimeType: "image/jpeg"}
	_, err := orch.EnhanceImage(context.Background(), studio.ImageRequest{Prompt: "nope", SourceImage: source})
	if !errors.Is(err, genmedia.ErrGenerationBlocked) {
		t.Fatalf("expected ErrGenerationBlocked, got %v", err)
	}
	if len(recorder.records) != 0 {
		t.Fatalf("blocked generation must not be recorded, got %d", len(recorder.records))
	}
}
