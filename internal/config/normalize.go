package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenMedia()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGenMedia() {
	if c.GenMedia.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.GenMedia.APIKey = strings.TrimSpace(value)
		}
	}
	c.GenMedia.APIKey = strings.TrimSpace(c.GenMedia.APIKey)
	c.GenMedia.BaseURL = strings.TrimRight(strings.TrimSpace(c.GenMedia.BaseURL), "/")
	if c.GenMedia.BaseURL == "" {
		c.GenMedia.BaseURL = defaultGenMediaBaseURL
	}
	if strings.TrimSpace(c.GenMedia.VideoModel) == "" {
		c.GenMedia.VideoModel = defaultVideoModel
	}
	if strings.TrimSpace(c.GenMedia.ImageModel) == "" {
		c.GenMedia.ImageModel = defaultImageModel
	}
	if c.GenMedia.PollIntervalSeconds <= 0 {
		c.GenMedia.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.GenMedia.TimeoutSeconds <= 0 {
		c.GenMedia.TimeoutSeconds = defaultGenMediaTimeout
	}
}

func (c *Config) normalizeMerge() {
	if strings.TrimSpace(c.Merge.AudioCodec) == "" {
		c.Merge.AudioCodec = defaultAudioCodec
	}
	if strings.TrimSpace(c.Merge.AudioBitrate) == "" {
		c.Merge.AudioBitrate = defaultAudioBitrate
	}
	if c.Merge.DefaultVolume == 0 {
		c.Merge.DefaultVolume = defaultVolume
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
