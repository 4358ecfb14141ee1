// Package genmedia is the client for the remote generative media API.
//
// Two operations are exposed. GenerateVideo drives a long-running
// operation: submit, poll at a configured interval, then download the
// finished artifact to a local path. EditImage is a single-shot request
// that returns a transformed image inline.
//
// Failures map to three sentinels: ErrGenerationFailed for transport and
// API errors, ErrGenerationBlocked for content-policy rejections, and
// ErrGenerationEmpty when the model answers without media.
package genmedia
