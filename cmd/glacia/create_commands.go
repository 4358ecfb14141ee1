package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"glacia/internal/artifacts"
	"glacia/internal/config"
	"glacia/internal/history"
	"glacia/internal/identity"
	"glacia/internal/media/compositor"
	"glacia/internal/services/genmedia"
	"glacia/internal/studio"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Generate new media from a prompt",
	}

	createCmd.AddCommand(newCreateVideoCommand(ctx))
	createCmd.AddCommand(newCreateImageCommand(ctx))
	createCmd.AddCommand(newSuggestionsCommand())

	return createCmd
}

func newCreateVideoCommand(ctx *commandContext) *cobra.Command {
	var imagePath string
	var audioPath string
	var volume float64
	var mirror bool

	cmd := &cobra.Command{
		Use:   "video [prompt]",
		Short: "Generate a video, optionally mixed with a soundtrack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(cfg *config.Config, store *history.Store) error {
				if err := cfg.RequireGenMediaKey(); err != nil {
					return err
				}
				_, _, err := ctx.requireProfile()
				if err != nil {
					return err
				}

				session, err := artifacts.NewSession(cfg, ctx.ensureLogger())
				if err != nil {
					return err
				}
				defer session.Close()

				merger := compositor.New(cfg, ctx.ensureLogger())
				source, err := resolveSourceImage(cmd, ctx, session, merger, imagePath, mirror)
				if err != nil {
					return err
				}

				if audioPath != "" {
					expanded, err := config.ExpandPath(audioPath)
					if err != nil {
						return err
					}
					if !fileExists(expanded) {
						return fmt.Errorf("audio file not found: %s", expanded)
					}
					audioPath = expanded
				}
				if !cmd.Flags().Changed("volume") {
					volume = cfg.Merge.DefaultVolume
				}

				orch := newOrchestrator(ctx, cfg, store, merger, session)
				out := cmd.OutOrStdout()
				result, err := orch.CreateVideo(cmd.Context(), studio.VideoRequest{
					Prompt:      prompt,
					SourceImage: source,
					AudioPath:   audioPath,
					Volume:      volume,
					Progress: func(p compositor.Progress) {
						if p.Phase == compositor.PhaseRecording {
							fmt.Fprintf(out, "\rmerging soundtrack: %3.0f%%", p.Percent)
						}
					},
				})
				if err != nil {
					return describeQuotaError(err)
				}
				if result.Merged {
					fmt.Fprintln(out)
				}

				name := artifacts.DownloadName(result.Record.ID, "mp4")
				ref := artifacts.Ref{ID: result.Record.ID, Path: result.ArtifactPath}
				exported, err := session.Export(ref, cfg.Paths.LibraryDir, name)
				if err != nil {
					return fmt.Errorf("export video: %w", err)
				}

				fmt.Fprintf(out, "Created %q\n", artifacts.Title(prompt))
				fmt.Fprintf(out, "Video saved to %s\n", exported)
				printRemainingQuota(cmd, ctx)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Source image to animate")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Soundtrack to mix into the video")
	cmd.Flags().Float64Var(&volume, "volume", 1.0, "Soundtrack volume between 0 and 1")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "Flip the source image horizontally before generating")
	return cmd
}

func newCreateImageCommand(ctx *commandContext) *cobra.Command {
	var imagePath string
	var mirror bool

	cmd := &cobra.Command{
		Use:   "image [prompt]",
		Short: "Transform an image with a prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if imagePath == "" {
				return fmt.Errorf("a source image is required (use --image)")
			}
			return ctx.withStore(func(cfg *config.Config, store *history.Store) error {
				if err := cfg.RequireGenMediaKey(); err != nil {
					return err
				}
				if _, _, err := ctx.requireProfile(); err != nil {
					return err
				}

				session, err := artifacts.NewSession(cfg, ctx.ensureLogger())
				if err != nil {
					return err
				}
				defer session.Close()

				merger := compositor.New(cfg, ctx.ensureLogger())
				source, err := resolveSourceImage(cmd, ctx, session, merger, imagePath, mirror)
				if err != nil {
					return err
				}

				orch := newOrchestrator(ctx, cfg, store, merger, session)
				result, err := orch.EnhanceImage(cmd.Context(), studio.ImageRequest{
					Prompt:      prompt,
					SourceImage: *source,
				})
				if err != nil {
					return describeQuotaError(err)
				}

				name := artifacts.DownloadName(result.Record.ID, extForMime(result.Image.MimeType))
				target := filepath.Join(cfg.Paths.LibraryDir, name)
				if err := writeImagePayload(target, result.Image); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created %q\n", artifacts.Title(prompt))
				fmt.Fprintf(out, "Image saved to %s\n", target)
				if result.Text != "" {
					fmt.Fprintf(out, "Model note: %s\n", result.Text)
				}
				printRemainingQuota(cmd, ctx)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Source image to transform")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "Flip the source image horizontally before generating")
	return cmd
}

func newSuggestionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "suggestions",
		Short:       "Show prompt ideas",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, suggestion := range studio.PromptSuggestions() {
				fmt.Fprintf(out, "  - %s\n", suggestion)
			}
			return nil
		},
	}
}

func newOrchestrator(ctx *commandContext, cfg *config.Config, store *history.Store, merger *compositor.Merger, session *artifacts.Session) *studio.Orchestrator {
	logger := ctx.ensureLogger()
	controller := history.NewController(store, logger, nil)
	client := genmedia.NewFromConfig(cfg)
	provider, _ := ctx.profiles()
	return studio.New(cfg, provider, controller, client, client, merger, session, logger)
}

// resolveSourceImage loads the optional source image, applying the mirror
// transform first when requested.
func resolveSourceImage(cmd *cobra.Command, ctx *commandContext, session *artifacts.Session, merger *compositor.Merger, imagePath string, mirror bool) (*history.ImagePayload, error) {
	if imagePath == "" {
		return nil, nil
	}
	expanded, err := config.ExpandPath(imagePath)
	if err != nil {
		return nil, err
	}
	if mirror {
		ref := session.NewRef(strings.TrimPrefix(filepath.Ext(expanded), "."))
		if err := merger.MirrorImage(cmd.Context(), expanded, ref.Path); err != nil {
			return nil, err
		}
		expanded = ref.Path
	}
	return loadImagePayload(expanded)
}

func loadImagePayload(path string) (*history.ImagePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mimeType := mimeForExt(filepath.Ext(path))
	if mimeType == "" {
		return nil, fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}
	return &history.ImagePayload{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}, nil
}

func writeImagePayload(path string, payload history.ImagePayload) error {
	data, err := base64.StdEncoding.DecodeString(payload.Base64)
	if err != nil {
		return fmt.Errorf("decode image payload: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func mimeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return ""
	}
}

func extForMime(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}

// describeQuotaError turns the quota sentinel into actionable guidance.
func describeQuotaError(err error) error {
	if errors.Is(err, identity.ErrQuotaExhausted) {
		return fmt.Errorf("%w; upgrade with `glacia account plan medium` or `glacia account plan pro`", err)
	}
	return err
}

func printRemainingQuota(cmd *cobra.Command, ctx *commandContext) {
	_, profile, err := ctx.requireProfile()
	if err != nil {
		return
	}
	if profile.Plan == identity.PlanFree {
		fmt.Fprintf(cmd.OutOrStdout(), "%d generation(s) left on the free plan\n", profile.GenerationsLeft)
	}
}
