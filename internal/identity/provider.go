package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"glacia/internal/config"
	"glacia/internal/logging"
)

var (
	// ErrNoProfile indicates no profile has been created yet.
	ErrNoProfile = errors.New("no profile")

	// ErrQuotaExhausted indicates the free-plan generation quota is used up.
	ErrQuotaExhausted = errors.New("generation quota exhausted")
)

const profileFileName = "profile.json"

// Provider owns the locally persisted profile. All access goes through it
// so quota updates and reads never race.
type Provider struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewProvider binds a provider to the state directory in cfg.
func NewProvider(cfg *config.Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{
		path:   filepath.Join(cfg.Paths.StateDir, profileFileName),
		logger: logging.WithComponent(logger, "identity"),
	}
}

// Current reads the stored profile. Returns ErrNoProfile when none exists.
func (p *Provider) Current() (*Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read()
}

// Save persists the profile. The file is written atomically so a crash
// never leaves a half-written profile behind.
func (p *Provider) Save(profile *Profile) error {
	if profile == nil {
		return errors.New("profile required")
	}
	if profile.Email == "" {
		return errors.New("profile email required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(profile)
}

// Bootstrap creates and persists a fresh free-plan profile. An existing
// profile for the same email is kept untouched; a different email replaces
// the stored profile.
func (p *Provider) Bootstrap(username, email string) (*Profile, error) {
	fresh := NewProfile(username, email)
	if fresh.Email == "" {
		return nil, errors.New("email required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, err := p.read(); err == nil && existing.Email == fresh.Email {
		return existing, nil
	}
	if err := p.write(fresh); err != nil {
		return nil, err
	}
	p.logger.Info("profile created",
		slog.String(logging.FieldOwner, fresh.Email),
		slog.String("plan", string(fresh.Plan)))
	return fresh, nil
}

// ConsumeGeneration decrements the quota after a successful generation and
// persists the result. Fails with ErrQuotaExhausted when a free plan has
// nothing left to consume.
func (p *Provider) ConsumeGeneration(profile *Profile) error {
	if profile == nil {
		return errors.New("profile required")
	}
	if !profile.CanGenerate() {
		return ErrQuotaExhausted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if profile.GenerationsLeft > 0 {
		profile.GenerationsLeft--
	}
	return p.write(profile)
}

// Clear removes the stored profile. Missing profiles are not an error.
func (p *Provider) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}

func (p *Provider) read() (*Profile, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if _, ok := ParsePlan(string(profile.Plan)); !ok {
		profile.Plan = PlanFree
	}
	return &profile, nil
}

func (p *Provider) write(profile *Profile) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}
