package genmedia

import (
	"errors"
	"net/http"
	"strings"
	"time"

	appconfig "glacia/internal/config"
)

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultHTTPTimeout  = 60 * time.Second
	defaultPollInterval = 10 * time.Second
)

// Config captures the runtime settings required to talk to the generation API.
type Config struct {
	APIKey         string
	BaseURL        string
	VideoModel     string
	ImageModel     string
	PollInterval   time.Duration
	TimeoutSeconds int
}

// Client wraps the generative media REST API: long-running video generation
// and single-shot image editing.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how poll waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a generation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			VideoModel:     strings.TrimSpace(cfg.VideoModel),
			ImageModel:     strings.TrimSpace(cfg.ImageModel),
			PollInterval:   cfg.PollInterval,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.PollInterval <= 0 {
		client.cfg.PollInterval = defaultPollInterval
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// NewFromConfig builds a client from the application configuration.
func NewFromConfig(cfg *appconfig.Config, opts ...Option) *Client {
	return NewClient(Config{
		APIKey:         cfg.GenMedia.APIKey,
		BaseURL:        cfg.GenMedia.BaseURL,
		VideoModel:     cfg.GenMedia.VideoModel,
		ImageModel:     cfg.GenMedia.ImageModel,
		PollInterval:   time.Duration(cfg.GenMedia.PollIntervalSeconds) * time.Second,
		TimeoutSeconds: cfg.GenMedia.TimeoutSeconds,
	}, opts...)
}

// ImageInput is an encoded image submitted with a generation request.
type ImageInput struct {
	Base64   string
	MimeType string
}

// ImageResult is the outcome of an image edit: the new image plus any text
// the model produced alongside it.
type ImageResult struct {
	Base64   string
	MimeType string
	Text     string
}

func (c *Client) requireKey(op string) error {
	if c.cfg.APIKey == "" {
		return errors.New(op + ": api key required")
	}
	return nil
}
