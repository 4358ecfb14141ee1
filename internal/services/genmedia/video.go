package genmedia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type videoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *inlineData `json:"image,omitempty"`
}

type inlineData struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	SampleCount int `json:"sampleCount"`
}

type videoOperation struct {
	Name     string   `json:"name"`
	Done     bool     `json:"done"`
	Error    *opError `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

type opError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GenerateVideo submits a video generation request, polls the long-running
// operation until it completes, and downloads the result to outputPath. The
// optional image seeds the generation. Polling has no attempt cap; callers
// bound the wait through the context.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, image *ImageInput, outputPath string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("generate video: prompt required")
	}
	if outputPath == "" {
		return "", errors.New("generate video: output path required")
	}
	if err := c.requireKey("generate video"); err != nil {
		return "", err
	}

	operation, err := c.submitVideo(ctx, prompt, image)
	if err != nil {
		return "", err
	}
	operation, err = c.pollVideo(ctx, operation)
	if err != nil {
		return "", err
	}

	samples := operation.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || strings.TrimSpace(samples[0].Video.URI) == "" {
		return "", fmt.Errorf("%w: operation finished with no download link", ErrGenerationFailed)
	}
	return outputPath, c.downloadVideo(ctx, samples[0].Video.URI, outputPath)
}

func (c *Client) submitVideo(ctx context.Context, prompt string, image *ImageInput) (videoOperation, error) {
	var operation videoOperation
	instance := videoInstance{Prompt: prompt}
	if image != nil {
		instance.Image = &inlineData{BytesBase64Encoded: image.Base64, MimeType: image.MimeType}
	}
	payload := videoRequest{
		Instances:  []videoInstance{instance},
		Parameters: videoParameters{SampleCount: 1},
	}
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.cfg.BaseURL, c.cfg.VideoModel)
	if err := c.postJSON(ctx, endpoint, payload, &operation); err != nil {
		return operation, fmt.Errorf("%w: submit: %w", ErrGenerationFailed, err)
	}
	if operation.Name == "" && !operation.Done {
		return operation, fmt.Errorf("%w: submit returned no operation name", ErrGenerationFailed)
	}
	return operation, nil
}

func (c *Client) pollVideo(ctx context.Context, operation videoOperation) (videoOperation, error) {
	endpoint := fmt.Sprintf("%s/%s", c.cfg.BaseURL, strings.TrimPrefix(operation.Name, "/"))
	for !operation.Done {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return operation, err
		}
		if err := c.getJSON(ctx, endpoint, &operation); err != nil {
			return operation, fmt.Errorf("%w: poll: %w", ErrGenerationFailed, err)
		}
	}
	if operation.Error != nil {
		return operation, fmt.Errorf("%w: %s", ErrGenerationFailed, strings.TrimSpace(operation.Error.Message))
	}
	return operation, nil
}

// downloadVideo fetches the finished artifact. The download link is served
// from file storage and expects the API key as a query parameter rather
// than a header.
func (c *Client) downloadVideo(ctx context.Context, uri, outputPath string) error {
	separator := "?"
	if strings.Contains(uri, "?") {
		separator = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+separator+"key="+c.cfg.APIKey, nil)
	if err != nil {
		return fmt.Errorf("%w: download request: %w", ErrGenerationFailed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download: %w", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download: http %d", ErrGenerationFailed, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: create output directory: %w", ErrGenerationFailed, err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: create output: %w", ErrGenerationFailed, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: write output: %w", ErrGenerationFailed, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, target any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, target)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.doJSON(req, target)
}

func (c *Client) doJSON(req *http.Request, target any) error {
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
