package compositor

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"glacia/internal/config"
	"glacia/internal/logging"
	"glacia/internal/media/ffprobe"
	"glacia/internal/services"
)

var commandContext = exec.CommandContext

// Request describes one merge. It is consumed once and discarded.
type Request struct {
	VideoPath string
	AudioPath string
	Volume    float64
}

// Progress reports merge advancement to an observer. Percent is only
// meaningful during the recording phase.
type Progress struct {
	Phase   Phase
	Percent float64
}

// Option configures a Merger.
type Option func(*Merger)

// WithPhaseObserver registers a callback invoked on every phase change.
func WithPhaseObserver(observe func(Phase)) Option {
	return func(m *Merger) {
		m.observe = observe
	}
}

// Merger combines a silent video artifact with an independent audio track
// into one playable file. The video stream is copied untouched; only the
// externally supplied audio is present in the output, scaled by the
// requested volume. Output length always equals the video's duration:
// shorter audio gains trailing silence, longer audio is cut.
type Merger struct {
	cfg     *config.Config
	logger  *slog.Logger
	observe func(Phase)

	mu    sync.Mutex
	phase Phase
}

// New builds a Merger bound to the configured ffmpeg tools.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Merger {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Merger{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "compositor"),
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Phase returns the merger's current lifecycle phase.
func (m *Merger) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Merger) setPhase(next Phase) {
	m.mu.Lock()
	current := m.phase
	if current == next || !current.CanTransition(next) && next != PhaseFailed {
		m.mu.Unlock()
		return
	}
	m.phase = next
	m.mu.Unlock()
	if m.observe != nil {
		m.observe(next)
	}
}

// Merge produces the combined artifact at outputPath and returns that path.
// The progress callback, when non-nil, is invoked with phase changes and
// recording percentages. On any failure the partial output is removed and
// no artifact path is returned.
func (m *Merger) Merge(ctx context.Context, req Request, outputPath string, progress func(Progress)) (string, error) {
	m.mu.Lock()
	m.phase = PhaseIdle
	m.mu.Unlock()

	report := func(phase Phase, percent float64) {
		m.setPhase(phase)
		if progress != nil {
			progress(Progress{Phase: phase, Percent: percent})
		}
	}

	fail := func(err error) (string, error) {
		report(PhaseFailed, 0)
		return "", err
	}

	req.Volume = clamp01(req.Volume)
	outputPath = strings.TrimSpace(outputPath)
	if req.VideoPath == "" || req.AudioPath == "" || outputPath == "" {
		return fail(services.Wrap(services.ErrValidation, "compositor", "merge", "video, audio, and output paths required", nil))
	}
	if _, err := exec.LookPath(m.cfg.FFmpegBinary()); err != nil {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "ffmpeg not found", err))
	}
	if _, err := exec.LookPath(m.cfg.FFprobeBinary()); err != nil {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "ffprobe not found", err))
	}

	report(PhaseLoading, 0)
	video, err := ffprobe.Inspect(ctx, m.cfg.FFprobeBinary(), req.VideoPath)
	if err != nil {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "inspect video source", err))
	}
	if !video.HasVideo() {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "video source carries no video stream", nil))
	}
	audio, err := ffprobe.Inspect(ctx, m.cfg.FFprobeBinary(), req.AudioPath)
	if err != nil {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "inspect audio source", err))
	}
	if !audio.HasAudio() {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "audio source carries no audio stream", nil))
	}
	duration := video.DurationSeconds()
	if duration <= 0 {
		return fail(services.Wrap(ErrCaptureUnsupported, "compositor", "merge", "video source has no resolvable duration", nil))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fail(services.Wrap(ErrRecordingFailed, "compositor", "merge", "create output directory", err))
	}

	logger := m.contextLogger(ctx)
	logger.Info("starting merge",
		slog.String("video", req.VideoPath),
		slog.String("audio", req.AudioPath),
		slog.Float64("volume", req.Volume),
		slog.Float64("video_seconds", duration))

	report(PhaseRecording, 0)
	if err := m.record(ctx, req, duration, outputPath, func(percent float64) {
		if progress != nil {
			progress(Progress{Phase: PhaseRecording, Percent: percent})
		}
	}); err != nil {
		removeQuiet(outputPath)
		return fail(err)
	}

	report(PhaseFinalizing, 100)
	artifact, err := ffprobe.Inspect(ctx, m.cfg.FFprobeBinary(), outputPath)
	if err != nil {
		removeQuiet(outputPath)
		return fail(services.Wrap(ErrRecordingFailed, "compositor", "merge", "verify merged artifact", err))
	}
	if !artifact.HasVideo() || !artifact.HasAudio() {
		removeQuiet(outputPath)
		return fail(services.Wrap(ErrRecordingFailed, "compositor", "merge", "merged artifact is missing a stream", nil))
	}

	logger.Info("merge complete",
		slog.String("output", outputPath),
		slog.Float64("seconds", artifact.DurationSeconds()))
	report(PhaseDone, 100)
	return outputPath, nil
}

// contextLogger enriches the merger's logger with the owner and request
// correlation carried on the context.
func (m *Merger) contextLogger(ctx context.Context) *slog.Logger {
	logger := m.logger
	if owner, ok := services.OwnerFromContext(ctx); ok {
		logger = logger.With(slog.String(logging.FieldOwner, owner))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		logger = logger.With(slog.String("request_id", id))
	}
	return logger
}

func (m *Merger) record(ctx context.Context, req Request, videoSeconds float64, outputPath string, onPercent func(float64)) error {
	args := mergeArgs(req, videoSeconds, m.cfg.Merge.AudioCodec, m.cfg.Merge.AudioBitrate, outputPath)
	cmd := commandContext(ctx, m.cfg.FFmpegBinary(), args...) //nolint:gosec
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return services.Wrap(ErrRecordingFailed, "compositor", "merge", "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(ErrRecordingFailed, "compositor", "merge", "start ffmpeg", err)
	}

	var tail []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if percent, ok := parseProgressLine(line, videoSeconds); ok {
			onPercent(percent)
			continue
		}
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(strings.Join(tail, "\n"))
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return services.Wrap(ErrRecordingFailed, "compositor", "merge", "ffmpeg", err)
	}
	return nil
}

// mergeArgs builds the single ffmpeg invocation that performs the whole
// merge: copy the first video stream, drop any audio embedded in the video
// source, scale the external audio with a volume filter, pad it with
// silence, and cut the output at the video's duration.
func mergeArgs(req Request, videoSeconds float64, audioCodec, audioBitrate, outputPath string) []string {
	args := []string{
		"-y", "-hide_banner", "-nostats", "-progress", "pipe:2",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-filter:a", fmt.Sprintf("volume=%s,apad", formatVolume(req.Volume)),
	}
	if audioCodec != "" {
		args = append(args, "-c:a", audioCodec)
	}
	if audioBitrate != "" {
		args = append(args, "-b:a", audioBitrate)
	}
	args = append(args, "-t", strconv.FormatFloat(videoSeconds, 'f', 3, 64), outputPath)
	return args
}

// parseProgressLine extracts a completion percentage from ffmpeg -progress
// output. Returns false for lines that are not progress keys.
func parseProgressLine(line string, videoSeconds float64) (float64, bool) {
	line = strings.TrimSpace(line)
	value, ok := strings.CutPrefix(line, "out_time_us=")
	if !ok {
		// Older ffmpeg builds only emit out_time_ms, which is also in
		// microseconds despite the name.
		value, ok = strings.CutPrefix(line, "out_time_ms=")
	}
	if ok {
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 || videoSeconds <= 0 {
			return 0, false
		}
		percent := float64(micros) / 1e6 / videoSeconds * 100
		if percent > 100 {
			percent = 100
		}
		return percent, true
	}
	if line == "progress=end" {
		return 100, true
	}
	return 0, false
}

func formatVolume(volume float64) string {
	return strconv.FormatFloat(volume, 'f', -1, 64)
}

func clamp01(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}

func removeQuiet(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
