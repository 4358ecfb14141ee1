package compositor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"glacia/internal/services"
)

// MirrorImage writes a horizontally flipped copy of a still image. Used to
// preprocess a source image before it is submitted for generation.
func (m *Merger) MirrorImage(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" || outputPath == "" {
		return services.Wrap(services.ErrValidation, "compositor", "mirror", "input and output paths required", nil)
	}
	if _, err := exec.LookPath(m.cfg.FFmpegBinary()); err != nil {
		return services.Wrap(ErrCaptureUnsupported, "compositor", "mirror", "ffmpeg not found", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(ErrRecordingFailed, "compositor", "mirror", "create output directory", err)
	}

	cmd := commandContext(ctx, m.cfg.FFmpegBinary(), mirrorArgs(inputPath, outputPath)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		removeQuiet(outputPath)
		return services.Wrap(ErrRecordingFailed, "compositor", "mirror", string(output), err)
	}
	return nil
}

func mirrorArgs(inputPath, outputPath string) []string {
	return []string{
		"-y", "-hide_banner",
		"-i", inputPath,
		"-vf", "hflip",
		"-frames:v", "1",
		"-update", "1",
		outputPath,
	}
}
