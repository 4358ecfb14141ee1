package config

const (
	defaultStagingDir          = "~/.local/share/glacia/staging"
	defaultLibraryDir          = "~/glacia"
	defaultLogDir              = "~/.local/share/glacia/logs"
	defaultStateDir            = "~/.local/share/glacia/state"
	defaultGenMediaBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultVideoModel          = "veo-2.0-generate-001"
	defaultImageModel          = "gemini-2.5-flash-image-preview"
	defaultPollIntervalSeconds = 10
	defaultGenMediaTimeout     = 120
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "192k"
	defaultVolume              = 1.0
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		GenMedia: GenMedia{
			BaseURL:             defaultGenMediaBaseURL,
			VideoModel:          defaultVideoModel,
			ImageModel:          defaultImageModel,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			TimeoutSeconds:      defaultGenMediaTimeout,
		},
		Merge: Merge{
			AudioCodec:    defaultAudioCodec,
			AudioBitrate:  defaultAudioBitrate,
			DefaultVolume: defaultVolume,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
