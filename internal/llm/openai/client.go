package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"career-gap-backend/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Client completes prompts through the Chat Completions API.
type Client struct {
	client   openai.Client
	settings llm.Settings
}

// New builds an OpenAI-backed provider. SDK retries are disabled so every call is one round trip.
func New(settings llm.Settings, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, llm.ErrMissingAPIKey
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultModel
	}
	base := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		base = append(base, option.WithBaseURL(settings.BaseURL))
	}
	return &Client{
		client:   openai.NewClient(append(base, opts...)...),
		settings: settings,
	}, nil
}

func (c *Client) Name() llm.ProviderName {
	return llm.ProviderOpenAI
}

// Complete returns the first non-empty message content of the completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.settings.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.settings.Temperature),
	}
	if c.settings.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.settings.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	for _, choice := range resp.Choices {
		if strings.TrimSpace(choice.Message.Content) != "" {
			return choice.Message.Content, nil
		}
	}
	return "", llm.ErrEmptyResponse
}
