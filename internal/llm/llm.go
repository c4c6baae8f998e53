package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProviderName identifies one of the supported completion backends.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
)

// Providers lists every supported backend.
var Providers = []ProviderName{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// ParseProviderName maps a configured value onto the closed provider set.
func ParseProviderName(raw string) (ProviderName, error) {
	name := ProviderName(strings.ToLower(strings.TrimSpace(raw)))
	switch name {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return name, nil
	default:
		return "", fmt.Errorf("unsupported AI provider %q (supported: openai, anthropic, gemini)", raw)
	}
}

// Provider turns a prompt into raw model text with a single completion call.
type Provider interface {
	Name() ProviderName
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleteFunc is a provider bound once at startup.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Settings carries the per-variant model parameters.
type Settings struct {
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	// BaseURL overrides the provider endpoint; empty keeps the SDK default.
	BaseURL string
}

// ErrEmptyResponse is returned when a completion carries no text content.
var ErrEmptyResponse = errors.New("llm: provider returned no text content")

// ErrMissingAPIKey is returned when a variant is built without credentials.
var ErrMissingAPIKey = errors.New("llm: api key is required")

// CallError wraps any failure of a provider round trip.
type CallError struct {
	Provider ProviderName
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("llm: %s call failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Bind resolves a provider into a CompleteFunc that tags failures with the provider name.
func Bind(p Provider) CompleteFunc {
	name := p.Name()
	return func(ctx context.Context, prompt string) (string, error) {
		text, err := p.Complete(ctx, prompt)
		if err != nil {
			var callErr *CallError
			if errors.As(err, &callErr) {
				return "", err
			}
			return "", &CallError{Provider: name, Err: err}
		}
		return text, nil
	}
}
