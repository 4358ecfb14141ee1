package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.Merge.DefaultVolume < 0 || c.Merge.DefaultVolume > 1 {
		return errors.New("merge.default_volume must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// RequireGenMediaKey reports a configuration error when no API key is available.
// Generation commands call this; history and merge commands work without a key.
func (c *Config) RequireGenMediaKey() error {
	if c.GenMedia.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/glacia/config.toml"
		}
		return fmt.Errorf("genmedia.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'glacia config init')", defaultPath)
	}
	return nil
}
