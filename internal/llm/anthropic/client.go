package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"career-gap-backend/internal/llm"
)

const (
	DefaultModel = "claude-sonnet-4-20250514"
	// defaultMaxTokens applies when none is configured; the Messages API requires the field.
	defaultMaxTokens = 4000
)

// Client completes prompts through the Messages API.
type Client struct {
	client   anthropic.Client
	settings llm.Settings
}

// New builds an Anthropic-backed provider with SDK retries disabled.
func New(settings llm.Settings, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, llm.ErrMissingAPIKey
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultModel
	}
	if settings.MaxOutputTokens <= 0 {
		settings.MaxOutputTokens = defaultMaxTokens
	}
	base := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		base = append(base, option.WithBaseURL(settings.BaseURL))
	}
	return &Client{
		client:   anthropic.NewClient(append(base, opts...)...),
		settings: settings,
	}, nil
}

func (c *Client) Name() llm.ProviderName {
	return llm.ProviderAnthropic
}

// Complete returns the first text block of the reply; tool use and thinking blocks are skipped.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.settings.Model),
		MaxTokens:   int64(c.settings.MaxOutputTokens),
		Temperature: anthropic.Float(c.settings.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", llm.ErrEmptyResponse
}
