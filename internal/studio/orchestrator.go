package studio

import (
	"context"
	"errors"
	"log/slog"

	"glacia/internal/artifacts"
	"glacia/internal/config"
	"glacia/internal/history"
	"glacia/internal/identity"
	"glacia/internal/logging"
	"glacia/internal/media/compositor"
	"glacia/internal/services"
	"glacia/internal/services/genmedia"
)

// ErrNothingToGenerate is returned when a request carries neither a prompt
// nor a source image.
var ErrNothingToGenerate = errors.New("prompt or source image required")

// VideoGenerator is the video-producing side of the generation client.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string, image *genmedia.ImageInput, outputPath string) (string, error)
}

// ImageEditor is the image-editing side of the generation client.
type ImageEditor interface {
	EditImage(ctx context.Context, prompt string, image genmedia.ImageInput) (genmedia.ImageResult, error)
}

// Merger combines a silent video with a soundtrack.
type Merger interface {
	Merge(ctx context.Context, req compositor.Request, outputPath string, progress func(compositor.Progress)) (string, error)
}

// Recorder is the history surface the orchestrator writes to.
type Recorder interface {
	RecordCreation(ctx context.Context, ownerKey, prompt string, source *history.ImagePayload, generated history.GeneratedMedia) *history.Record
}

// VideoRequest describes one video creation.
type VideoRequest struct {
	Prompt      string
	SourceImage *history.ImagePayload
	AudioPath   string // optional soundtrack; empty means silent output
	Volume      float64
	Progress    func(compositor.Progress)
}

// VideoResult is a finished video creation. ArtifactPath points into the
// session staging area and is only valid until the session closes.
type VideoResult struct {
	Record       *history.Record
	ArtifactPath string
	Merged       bool
}

// ImageRequest describes one image enhancement.
type ImageRequest struct {
	Prompt      string
	SourceImage history.ImagePayload
}

// ImageResult is a finished image enhancement.
type ImageResult struct {
	Record *history.Record
	Image  history.ImagePayload
	Text   string
}

// Orchestrator sequences a creation end to end: quota gate, generation,
// optional soundtrack merge, history record, quota consumption.
type Orchestrator struct {
	cfg      *config.Config
	profiles *identity.Provider
	recorder Recorder
	videos   VideoGenerator
	images   ImageEditor
	merger   Merger
	session  *artifacts.Session
	logger   *slog.Logger
}

// New wires an orchestrator from its collaborators.
func New(cfg *config.Config, profiles *identity.Provider, recorder Recorder, videos VideoGenerator, images ImageEditor, merger Merger, session *artifacts.Session, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		profiles: profiles,
		recorder: recorder,
		videos:   videos,
		images:   images,
		merger:   merger,
		session:  session,
		logger:   logging.WithComponent(logger, "studio"),
	}
}

// CreateVideo generates a video from the prompt and optional source image,
// then mixes in the requested soundtrack. A failed merge is downgraded to a
// warning and the silent video is kept, matching the rest of the app's
// local-first stance: the user never loses a finished generation.
func (o *Orchestrator) CreateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	profile, err := o.gate(req.Prompt, req.SourceImage)
	if err != nil {
		return nil, err
	}
	ctx = services.WithOwner(ctx, profile.OwnerKey())

	ref := o.session.NewRef("mp4")
	artifactPath, err := o.videos.GenerateVideo(ctx, req.Prompt, imageInput(req.SourceImage), ref.Path)
	if err != nil {
		return nil, err
	}

	merged := false
	if req.AudioPath != "" {
		mergedRef := o.session.NewRef("mp4")
		mergedPath, mergeErr := o.merger.Merge(ctx, compositor.Request{
			VideoPath: artifactPath,
			AudioPath: req.AudioPath,
			Volume:    req.Volume,
		}, mergedRef.Path, req.Progress)
		if mergeErr != nil {
			o.logger.Warn("soundtrack merge failed, keeping silent video",
				slog.String("audio", req.AudioPath),
				slog.Any("error", mergeErr))
		} else {
			artifactPath = mergedPath
			merged = true
		}
	}

	record := o.recorder.RecordCreation(ctx, profile.OwnerKey(), req.Prompt, req.SourceImage, history.NewVideoMedia())
	o.consume(profile)
	return &VideoResult{Record: record, ArtifactPath: artifactPath, Merged: merged}, nil
}

// EnhanceImage runs a single-shot image edit and records the result with
// its payload, so it can be reused and downloaded from history later.
func (o *Orchestrator) EnhanceImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	profile, err := o.gate(req.Prompt, &req.SourceImage)
	if err != nil {
		return nil, err
	}
	ctx = services.WithOwner(ctx, profile.OwnerKey())
	if req.SourceImage.Base64 == "" || req.SourceImage.MimeType == "" {
		return nil, errors.New("source image required for image enhancement")
	}

	edited, err := o.images.EditImage(ctx, req.Prompt, genmedia.ImageInput{
		Base64:   req.SourceImage.Base64,
		MimeType: req.SourceImage.MimeType,
	})
	if err != nil {
		return nil, err
	}

	payload := history.ImagePayload{Base64: edited.Base64, MimeType: edited.MimeType}
	record := o.recorder.RecordCreation(ctx, profile.OwnerKey(), req.Prompt, &req.SourceImage,
		history.NewImageMedia(payload.Base64, payload.MimeType))
	o.consume(profile)
	return &ImageResult{Record: record, Image: payload, Text: edited.Text}, nil
}

// gate loads the profile and enforces the free-plan quota before any work
// or network traffic happens.
func (o *Orchestrator) gate(prompt string, source *history.ImagePayload) (*identity.Profile, error) {
	profile, err := o.profiles.Current()
	if err != nil {
		return nil, err
	}
	if !profile.CanGenerate() {
		return nil, identity.ErrQuotaExhausted
	}
	if prompt == "" && (source == nil || source.Base64 == "") {
		return nil, ErrNothingToGenerate
	}
	return profile, nil
}

// consume decrements the quota after a successful creation. The creation
// already happened, so a persistence failure here is only logged.
func (o *Orchestrator) consume(profile *identity.Profile) {
	if err := o.profiles.ConsumeGeneration(profile); err != nil {
		o.logger.Warn("failed to consume generation quota",
			slog.String(logging.FieldOwner, profile.OwnerKey()),
			slog.Any("error", err))
	}
}

func imageInput(payload *history.ImagePayload) *genmedia.ImageInput {
	if payload == nil || payload.Base64 == "" {
		return nil
	}
	return &genmedia.ImageInput{Base64: payload.Base64, MimeType: payload.MimeType}
}
