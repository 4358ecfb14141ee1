// Package compositor merges a silent generated video with an independent
// audio track into one downloadable artifact.
//
// A merge is a single ffmpeg invocation: the video stream is copied without
// re-encoding, the external audio passes through a volume gain stage and
// silence padding, and the output is cut at the video's natural duration.
// Any audio embedded in the video source is never mapped into the result.
//
// The merge lifecycle is an explicit state machine (Idle, Loading,
// Recording, Finalizing, Done, with Failed reachable from every step) so
// callers can render progress and so cancellation propagates through the
// context at each stage.
package compositor
