package genmedia

import "errors"

var (
	// ErrGenerationFailed indicates the remote service could not produce a
	// result: transport failure, API error, or a finished operation with no
	// downloadable media.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationBlocked indicates the request was rejected by a content
	// policy. Not retryable with the same input.
	ErrGenerationBlocked = errors.New("generation blocked")

	// ErrGenerationEmpty indicates the service answered but returned no
	// media, typically text commentary instead of an image.
	ErrGenerationEmpty = errors.New("generation returned no media")
)
