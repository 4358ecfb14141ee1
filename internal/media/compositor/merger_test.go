package compositor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glacia/internal/testsupport"
)

func TestMergeArgsShape(t *testing.T) {
	args := mergeArgs(Request{VideoPath: "in.mp4", AudioPath: "track.mp3", Volume: 0.5}, 8, "aac", "192k", "out.mp4")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i in.mp4 -i track.mp3",
		"-map 0:v:0 -map 1:a:0",
		"-c:v copy",
		"-filter:a volume=0.5,apad",
		"-c:a aac",
		"-b:a 192k",
		"-t 8.000",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output path must be last, got %q", args[len(args)-1])
	}
}

func TestMergeArgsOmitsUnsetCodecSettings(t *testing.T) {
	args := mergeArgs(Request{VideoPath: "in.mp4", AudioPath: "track.mp3", Volume: 1}, 4, "", "", "out.mp4")
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-c:a") || strings.Contains(joined, "-b:a") {
		t.Fatalf("unset codec settings leaked into args: %s", joined)
	}
}

func TestParseProgressLine(t *testing.T) {
	cases := []struct {
		line    string
		seconds float64
		percent float64
		ok      bool
	}{
		{"out_time_us=2000000", 8, 25, true},
		{"out_time_ms=4000000", 8, 50, true},
		{"out_time_us=16000000", 8, 100, true},
		{"progress=end", 8, 100, true},
		{"frame=42", 8, 0, false},
		{"out_time_us=garbage", 8, 0, false},
	}
	for _, tc := range cases {
		percent, ok := parseProgressLine(tc.line, tc.seconds)
		if ok != tc.ok || percent != tc.percent {
			t.Fatalf("parseProgressLine(%q) = %v, %v; want %v, %v", tc.line, percent, ok, tc.percent, tc.ok)
		}
	}
}

func TestClampVolume(t *testing.T) {
	if clamp01(-0.5) != 0 {
		t.Fatal("negative volume must clamp to 0")
	}
	if clamp01(1.5) != 1 {
		t.Fatal("volume above 1 must clamp to 1")
	}
	if clamp01(0.7) != 0.7 {
		t.Fatal("in-range volume must pass through")
	}
}

func TestPhaseTransitions(t *testing.T) {
	legal := []struct{ from, to Phase }{
		{PhaseIdle, PhaseLoading},
		{PhaseLoading, PhaseRecording},
		{PhaseRecording, PhaseFinalizing},
		{PhaseFinalizing, PhaseDone},
		{PhaseRecording, PhaseFailed},
	}
	for _, tc := range legal {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}
	if PhaseRecording.CanTransition(PhaseLoading) {
		t.Fatal("backwards transition must be illegal")
	}
	if PhaseDone.CanTransition(PhaseLoading) {
		t.Fatal("terminal phases must not transition")
	}
	if !PhaseDone.Terminal() || !PhaseFailed.Terminal() || PhaseRecording.Terminal() {
		t.Fatal("terminal classification wrong")
	}
}

const probeBothStreamsJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "width": 1280, "height": 720},
    {"index": 1, "codec_type": "audio", "channels": 2}
  ],
  "format": {"duration": "4.0"}
}`

const probeAudioOnlyJSON = `{
  "streams": [{"index": 0, "codec_type": "audio", "channels": 2}],
  "format": {"duration": "4.0"}
}`

// writeStub installs an executable shell script into dir.
func writeStub(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func probeStub(payload string) string {
	return "cat <<'EOF'\n" + payload + "\nEOF\n"
}

// prependPath puts dir ahead of the existing PATH so stubs shadow any real
// ffmpeg tools without breaking the shell utilities the stubs call.
func prependPath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestMergeFailsWhenToolsMissing(t *testing.T) {
	emptyDir := t.TempDir()
	t.Setenv("PATH", emptyDir)

	cfg := testsupport.NewConfig(t)
	merger := New(cfg, nil)

	_, err := merger.Merge(context.Background(), Request{VideoPath: "v.mp4", AudioPath: "a.mp3", Volume: 1}, filepath.Join(emptyDir, "out.mp4"), nil)
	if !errors.Is(err, ErrCaptureUnsupported) {
		t.Fatalf("expected ErrCaptureUnsupported, got %v", err)
	}
	if merger.Phase() != PhaseFailed {
		t.Fatalf("expected Failed phase, got %s", merger.Phase())
	}
}

func TestMergeRejectsVideoSourceWithoutVideoStream(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "ffmpeg", "exit 0\n")
	writeStub(t, binDir, "ffprobe", probeStub(probeAudioOnlyJSON))
	prependPath(t, binDir)

	cfg := testsupport.NewConfig(t)
	merger := New(cfg, nil)

	_, err := merger.Merge(context.Background(), Request{VideoPath: "v.mp4", AudioPath: "a.mp3", Volume: 1}, filepath.Join(binDir, "out.mp4"), nil)
	if !errors.Is(err, ErrCaptureUnsupported) {
		t.Fatalf("expected ErrCaptureUnsupported, got %v", err)
	}
}

func TestMergeRemovesPartialOutputOnRecordingFailure(t *testing.T) {
	binDir := t.TempDir()
	// Simulate ffmpeg writing a partial file before dying mid-run.
	writeStub(t, binDir, "ffmpeg", "for arg; do out=$arg; done\ntouch \"$out\"\necho 'boom' >&2\nexit 1\n")
	writeStub(t, binDir, "ffprobe", probeStub(probeBothStreamsJSON))
	prependPath(t, binDir)

	cfg := testsupport.NewConfig(t)
	merger := New(cfg, nil)
	workDir := t.TempDir()
	videoPath := filepath.Join(workDir, "v.mp4")
	audioPath := filepath.Join(workDir, "a.mp3")
	testsupport.WriteFile(t, videoPath, 1024)
	testsupport.WriteFile(t, audioPath, 512)
	outputPath := filepath.Join(workDir, "out.mp4")

	_, err := merger.Merge(context.Background(), Request{VideoPath: videoPath, AudioPath: audioPath, Volume: 1}, outputPath, nil)
	if !errors.Is(err, ErrRecordingFailed) {
		t.Fatalf("expected ErrRecordingFailed, got %v", err)
	}
	if _, statErr := os.Stat(outputPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("partial output must be removed, stat: %v", statErr)
	}
	if merger.Phase() != PhaseFailed {
		t.Fatalf("expected Failed phase, got %s", merger.Phase())
	}
}

func TestMergeRunsPhaseMachineToDone(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "ffmpeg", "for arg; do out=$arg; done\ntouch \"$out\"\necho 'out_time_us=2000000' >&2\necho 'progress=end' >&2\nexit 0\n")
	writeStub(t, binDir, "ffprobe", probeStub(probeBothStreamsJSON))
	prependPath(t, binDir)

	cfg := testsupport.NewConfig(t)
	var phases []Phase
	merger := New(cfg, nil, WithPhaseObserver(func(p Phase) {
		phases = append(phases, p)
	}))
	workDir := t.TempDir()
	videoPath := filepath.Join(workDir, "v.mp4")
	audioPath := filepath.Join(workDir, "a.mp3")
	testsupport.WriteFile(t, videoPath, 1024)
	testsupport.WriteFile(t, audioPath, 512)
	outputPath := filepath.Join(workDir, "out.mp4")

	var sawRecordingPercent bool
	path, err := merger.Merge(context.Background(), Request{VideoPath: videoPath, AudioPath: audioPath, Volume: 0.5}, outputPath, func(p Progress) {
		if p.Phase == PhaseRecording && p.Percent > 0 {
			sawRecordingPercent = true
		}
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if path != outputPath {
		t.Fatalf("unexpected artifact path %q", path)
	}

	want := []Phase{PhaseLoading, PhaseRecording, PhaseFinalizing, PhaseDone}
	if len(phases) != len(want) {
		t.Fatalf("unexpected phase sequence %v", phases)
	}
	for i, phase := range want {
		if phases[i] != phase {
			t.Fatalf("unexpected phase sequence %v", phases)
		}
	}
	if !sawRecordingPercent {
		t.Fatal("expected at least one recording progress sample")
	}
	if merger.Phase() != PhaseDone {
		t.Fatalf("expected Done phase, got %s", merger.Phase())
	}
}

func TestMirrorArgs(t *testing.T) {
	args := mirrorArgs("in.png", "out.png")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-vf hflip") {
		t.Fatalf("mirror args missing hflip: %s", joined)
	}
	if args[len(args)-1] != "out.png" {
		t.Fatalf("output path must be last, got %q", args[len(args)-1])
	}
}
