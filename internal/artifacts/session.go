package artifacts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"glacia/internal/config"
	"glacia/internal/logging"
)

// Ref points at one ephemeral artifact inside a session. Refs are only
// valid while the session is open; history records never embed them.
type Ref struct {
	ID   string
	Path string
}

// Session owns a staging directory for one run of the app. Every artifact
// produced during the run lives under it, and Close removes all of them.
type Session struct {
	id     string
	dir    string
	logger *slog.Logger
}

// NewSession creates a uuid-named directory under the staging root.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	id := uuid.NewString()
	dir := filepath.Join(cfg.Paths.StagingDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Session{
		id:     id,
		dir:    dir,
		logger: logging.WithComponent(logger, "artifacts"),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Dir returns the session's staging directory.
func (s *Session) Dir() string {
	return s.dir
}

// NewRef reserves a path for a new artifact with the given extension. The
// file itself is created by whoever produces the artifact.
func (s *Session) NewRef(ext string) Ref {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	id := uuid.NewString()
	name := id
	if ext != "" {
		name = id + "." + ext
	}
	return Ref{ID: id, Path: filepath.Join(s.dir, name)}
}

// Close removes the session directory and everything in it.
func (s *Session) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove session directory: %w", err)
	}
	s.logger.Debug("session cleaned up", slog.String("session_id", s.id))
	return nil
}

// Export copies an artifact out of the session into the library directory
// under its download name, so it survives session cleanup.
func (s *Session) Export(ref Ref, libraryDir, downloadName string) (string, error) {
	if libraryDir == "" {
		return "", errors.New("library directory required")
	}
	if err := os.MkdirAll(libraryDir, 0o755); err != nil {
		return "", fmt.Errorf("create library directory: %w", err)
	}
	target := filepath.Join(libraryDir, downloadName)
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return target, nil
}
