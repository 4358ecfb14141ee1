package compositor

import "errors"

var (
	// ErrCaptureUnsupported indicates the environment cannot run a merge:
	// the ffmpeg tools are missing or an input cannot feed the pipeline.
	ErrCaptureUnsupported = errors.New("capture unsupported")

	// ErrRecordingFailed indicates the merge pipeline failed mid-run. No
	// partial artifact is left behind when this is returned.
	ErrRecordingFailed = errors.New("recording failed")
)
