package services_test

import (
	"errors"
	"strings"
	"testing"

	"glacia/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "compositor", "merge", "ffmpeg exited", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	if !strings.Contains(err.Error(), "compositor: merge: ffmpeg exited") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default: %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestRecoverable(t *testing.T) {
	if services.Recoverable(services.Wrap(services.ErrValidation, "c", "op", "", nil)) {
		t.Fatal("validation errors are not recoverable")
	}
	if !services.Recoverable(services.Wrap(services.ErrExternalTool, "c", "op", "", nil)) {
		t.Fatal("external tool errors are recoverable")
	}
}
