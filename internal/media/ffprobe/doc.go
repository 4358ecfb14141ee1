// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no glacia-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result answer the questions the compositor asks before
// a merge: does the container carry video, does it carry audio, and how
// long does it run.
package ffprobe
