package genmedia

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlinePart `json:"inlineData,omitempty"`
}

type inlinePart struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// EditImage sends the source image and an instruction to the image model and
// returns the transformed image plus any accompanying text.
func (c *Client) EditImage(ctx context.Context, prompt string, image ImageInput) (ImageResult, error) {
	var empty ImageResult
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return empty, errors.New("edit image: prompt required")
	}
	if image.Base64 == "" || image.MimeType == "" {
		return empty, errors.New("edit image: source image required")
	}
	if err := c.requireKey("edit image"); err != nil {
		return empty, err
	}

	payload := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlinePart{Data: image.Base64, MimeType: image.MimeType}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	var response generateContentResponse
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.ImageModel)
	if err := c.postJSON(ctx, endpoint, payload, &response); err != nil {
		return empty, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return empty, fmt.Errorf("%w: %s", ErrGenerationBlocked, response.PromptFeedback.BlockReason)
		}
		return empty, ErrGenerationEmpty
	}

	var result ImageResult
	for _, responsePart := range response.Candidates[0].Content.Parts {
		switch {
		case responsePart.InlineData != nil:
			result.Base64 = responsePart.InlineData.Data
			result.MimeType = responsePart.InlineData.MimeType
		case responsePart.Text != "":
			result.Text += responsePart.Text
		}
	}

	if result.Base64 == "" || result.MimeType == "" {
		if result.Text != "" {
			return empty, fmt.Errorf("%w: model answered with text only: %s", ErrGenerationEmpty, strings.TrimSpace(result.Text))
		}
		return empty, ErrGenerationEmpty
	}
	return result, nil
}
