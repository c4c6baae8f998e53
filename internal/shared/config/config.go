package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"career-gap-backend/internal/llm"
)

// Config holds application configuration. It is built once by Load and never mutated.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	CORSOrigins []string

	AIProvider        string
	OpenAIAPIKey      string
	OpenAIModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	GeminiAPIKey      string
	GeminiModel       string
	AITemperature     float64
	AIMaxOutputTokens int
	AITimeout         time.Duration

	RedisURL string
	RedisTTL time.Duration

	AnalyzeRateLimitRPS   float64
	AnalyzeRateLimitBurst int

	UploadDir string

	OTelEnabled     bool
	OTelEndpoint    string
	OTelInsecure    bool
	OTelSampleRatio float64

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBPingTimeout     time.Duration
}

// Load reads .env files (best effort) and then the process environment.
func Load() Config {
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(existing(".env", "cmd/.env")...)
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("AI_PROVIDER", string(llm.ProviderOpenAI))
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("AI_TEMPERATURE", 0.7)
	v.SetDefault("AI_MAX_OUTPUT_TOKENS", 4000)
	v.SetDefault("AI_TIMEOUT", "0s")
	v.SetDefault("REDIS_TTL", "24h")
	v.SetDefault("RATE_LIMIT_ANALYZE_RPS", 0.5)
	v.SetDefault("RATE_LIMIT_ANALYZE_BURST", 5)
	v.SetDefault("UPLOAD_DIR", os.TempDir())
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)

	_ = v.BindEnv("GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		Port:        strings.TrimSpace(v.GetString("PORT")),
		Env:         normalizeEnv(v.GetString("ENV")),
		LogLevel:    strings.TrimSpace(v.GetString("LOG_LEVEL")),
		DatabaseURL: strings.TrimSpace(v.GetString("DATABASE_URL")),
		CORSOrigins: splitAndTrim(v.GetString("FRONTEND_URL")),

		AIProvider:        strings.ToLower(strings.TrimSpace(v.GetString("AI_PROVIDER"))),
		OpenAIAPIKey:      strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIModel:       strings.TrimSpace(v.GetString("OPENAI_MODEL")),
		AnthropicAPIKey:   strings.TrimSpace(v.GetString("ANTHROPIC_API_KEY")),
		AnthropicModel:    strings.TrimSpace(v.GetString("ANTHROPIC_MODEL")),
		GeminiAPIKey:      strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:       strings.TrimSpace(v.GetString("GEMINI_MODEL")),
		AITemperature:     v.GetFloat64("AI_TEMPERATURE"),
		AIMaxOutputTokens: v.GetInt("AI_MAX_OUTPUT_TOKENS"),
		AITimeout:         v.GetDuration("AI_TIMEOUT"),

		RedisURL: strings.TrimSpace(v.GetString("REDIS_URL")),
		RedisTTL: v.GetDuration("REDIS_TTL"),

		AnalyzeRateLimitRPS:   v.GetFloat64("RATE_LIMIT_ANALYZE_RPS"),
		AnalyzeRateLimitBurst: v.GetInt("RATE_LIMIT_ANALYZE_BURST"),

		UploadDir: strings.TrimSpace(v.GetString("UPLOAD_DIR")),

		OTelEnabled:     v.GetBool("OTEL_ENABLED"),
		OTelEndpoint:    strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTelInsecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OTelSampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),

		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		DBPingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),
	}
}

// Validate reports every startup problem at once.
func (c Config) Validate() error {
	var errs []error

	provider, err := llm.ParseProviderName(c.AIProvider)
	if err != nil {
		errs = append(errs, err)
	} else if c.APIKey(provider) == "" {
		errs = append(errs, fmt.Errorf("%s is required when AI_PROVIDER=%s", apiKeyEnv(provider), provider))
	}
	if c.Env == "production" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		errs = append(errs, fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", c.AITemperature))
	}
	if c.AIMaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("AI_MAX_OUTPUT_TOKENS must be positive, got %d", c.AIMaxOutputTokens))
	}
	if c.AITimeout < 0 {
		errs = append(errs, fmt.Errorf("AI_TIMEOUT must not be negative, got %s", c.AITimeout))
	}
	return errors.Join(errs...)
}

// Provider returns the selected provider. Call Validate first.
func (c Config) Provider() llm.ProviderName {
	name, _ := llm.ParseProviderName(c.AIProvider)
	return name
}

// APIKey returns the credential configured for provider.
func (c Config) APIKey(provider llm.ProviderName) string {
	switch provider {
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	case llm.ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// ProviderSettings returns the model parameters for provider.
func (c Config) ProviderSettings(provider llm.ProviderName) llm.Settings {
	settings := llm.Settings{
		APIKey:          c.APIKey(provider),
		Temperature:     c.AITemperature,
		MaxOutputTokens: c.AIMaxOutputTokens,
	}
	switch provider {
	case llm.ProviderOpenAI:
		settings.Model = c.OpenAIModel
	case llm.ProviderAnthropic:
		settings.Model = c.AnthropicModel
	case llm.ProviderGemini:
		settings.Model = c.GeminiModel
	}
	return settings
}

func apiKeyEnv(provider llm.ProviderName) string {
	switch provider {
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY (or GOOGLE_GENERATIVE_AI_API_KEY)"
	default:
		return "OPENAI_API_KEY"
	}
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "test":
		return "test"
	default:
		return "development"
	}
}
