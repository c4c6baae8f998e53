package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"career-gap-backend/internal/llm"
)

const DefaultModel = "gemini-1.5-flash"

// Client completes prompts through the Gemini API backend.
type Client struct {
	client   *genai.Client
	settings llm.Settings
}

// New builds a Gemini-backed provider.
func New(ctx context.Context, settings llm.Settings) (*Client, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, llm.ErrMissingAPIKey
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, settings: settings}, nil
}

func (c *Client) Name() llm.ProviderName {
	return llm.ProviderGemini
}

// Complete returns the first non-empty text part across the response candidates.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(c.settings.Temperature)),
	}
	if c.settings.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(c.settings.MaxOutputTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.settings.Model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", llm.ErrEmptyResponse
}
