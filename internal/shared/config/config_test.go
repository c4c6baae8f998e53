package config

import (
	"strings"
	"testing"
	"time"

	"career-gap-backend/internal/llm"
)

func TestDefaults(t *testing.T) {
	cfg := FromViper(newViper())

	if cfg.Port != "5000" {
		t.Fatalf("expected port 5000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected development env, got %s", cfg.Env)
	}
	if cfg.AIProvider != "openai" || cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("unexpected provider defaults %s %s", cfg.AIProvider, cfg.OpenAIModel)
	}
	if cfg.AnthropicModel != "claude-sonnet-4-20250514" || cfg.GeminiModel != "gemini-1.5-flash" {
		t.Fatalf("unexpected model defaults %s %s", cfg.AnthropicModel, cfg.GeminiModel)
	}
	if cfg.AITemperature != 0.7 || cfg.AIMaxOutputTokens != 4000 || cfg.AITimeout != 0 {
		t.Fatalf("unexpected AI defaults %+v", cfg)
	}
	if cfg.RedisTTL != 24*time.Hour {
		t.Fatalf("expected 24h redis ttl, got %s", cfg.RedisTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", " Gemini ")
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", "g-key")
	t.Setenv("AI_TIMEOUT", "45s")
	t.Setenv("FRONTEND_URL", "https://app.example.com, https://admin.example.com")
	t.Setenv("ENV", "prod")

	cfg := FromViper(newViper())

	if cfg.Provider() != llm.ProviderGemini {
		t.Fatalf("expected gemini provider, got %q", cfg.AIProvider)
	}
	if cfg.GeminiAPIKey != "g-key" {
		t.Fatalf("expected fallback gemini key, got %q", cfg.GeminiAPIKey)
	}
	if cfg.AITimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.AITimeout)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORSOrigins)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production env, got %s", cfg.Env)
	}
	settings := cfg.ProviderSettings(llm.ProviderGemini)
	if settings.APIKey != "g-key" || settings.Model != "gemini-1.5-flash" || settings.MaxOutputTokens != 4000 {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:               "development",
		AIProvider:        "openai",
		OpenAIAPIKey:      "sk-test",
		AITemperature:     0.7,
		AIMaxOutputTokens: 4000,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unsupported provider", mutate: func(c *Config) { c.AIProvider = "unsupported" }, wantErr: `"unsupported"`},
		{name: "missing key", mutate: func(c *Config) { c.OpenAIAPIKey = "" }, wantErr: "OPENAI_API_KEY"},
		{name: "anthropic key missing", mutate: func(c *Config) { c.AIProvider = "anthropic" }, wantErr: "ANTHROPIC_API_KEY"},
		{name: "production without database", mutate: func(c *Config) { c.Env = "production" }, wantErr: "DATABASE_URL"},
		{name: "negative timeout", mutate: func(c *Config) { c.AITimeout = -time.Second }, wantErr: "AI_TIMEOUT"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %s, got %v", tt.wantErr, err)
			}
		})
	}
}
