package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"career-gap-backend/internal/fingerprint"
	"career-gap-backend/internal/llm"
	"career-gap-backend/internal/shared/metrics"
	"career-gap-backend/internal/shared/telemetry"
)

const rawPreviewChars = 200

// Service runs the analyze pipeline: fingerprint, cache lookup, provider call, validation and storage.
type Service struct {
	Cache    *Cache
	Complete llm.CompleteFunc
	Provider llm.ProviderName
	// Timeout bounds each provider call; zero means no bound.
	Timeout time.Duration
}

// NewService constructs a Service.
func NewService(cache *Cache, provider llm.ProviderName, complete llm.CompleteFunc, timeout time.Duration) *Service {
	return &Service{Cache: cache, Provider: provider, Complete: complete, Timeout: timeout}
}

// ValidateInput checks document lengths in characters.
func ValidateInput(resumeText, jobDescriptionText string) error {
	var details []FieldError
	switch n := utf8.RuneCountInString(resumeText); {
	case n < MinResumeChars:
		details = append(details, FieldError{Field: "resumeText", Message: fmt.Sprintf("Resume must be at least %d characters", MinResumeChars)})
	case n > MaxResumeChars:
		details = append(details, FieldError{Field: "resumeText", Message: "Resume must not exceed 50,000 characters"})
	}
	switch n := utf8.RuneCountInString(jobDescriptionText); {
	case n < MinJobDescriptionChars:
		details = append(details, FieldError{Field: "jobDescriptionText", Message: fmt.Sprintf("Job description must be at least %d characters", MinJobDescriptionChars)})
	case n > MaxJobDescriptionChars:
		details = append(details, FieldError{Field: "jobDescriptionText", Message: "Job description must not exceed 20,000 characters"})
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

// Analyze returns the analysis for the pair and whether it came from the cache.
// A lost insert race surfaces as ErrDuplicateKey.
func (s *Service) Analyze(ctx context.Context, resumeText, jobDescriptionText string) (Analysis, bool, error) {
	if err := ValidateInput(resumeText, jobDescriptionText); err != nil {
		return Analysis{}, false, err
	}

	cacheKey := fingerprint.Key(resumeText, jobDescriptionText)
	fields := map[string]any{
		"cache_key":  fingerprint.Short(cacheKey),
		"request_id": requestIDFromContext(ctx),
		"provider":   string(s.Provider),
	}

	if existing, found := s.Cache.Lookup(ctx, cacheKey); found {
		metrics.IncCacheHit()
		telemetry.Info("analysis.cache_hit", fields)
		return existing, true, nil
	}
	metrics.IncCacheMiss()
	telemetry.Info("analysis.cache_miss", fields)

	raw, err := s.complete(ctx, llm.BuildPrompt(resumeText, jobDescriptionText))
	if err != nil {
		metrics.IncProviderFailure()
		fields["error"] = err.Error()
		telemetry.Error("analysis.provider_failed", fields)
		return Analysis{}, false, err
	}

	validated, err := ParseAndValidate(raw)
	if err != nil {
		metrics.IncProviderFailure()
		fields["error"] = err.Error()
		fields["raw_preview"] = preview(raw, rawPreviewChars)
		telemetry.Warn("analysis.invalid_provider_output", fields)
		return Analysis{}, false, fmt.Errorf("%w: %w", ErrProviderOutput, err)
	}

	created, err := s.Cache.Store(ctx, cacheKey, resumeText, jobDescriptionText, validated)
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			metrics.IncDuplicateKey()
			telemetry.Warn("analysis.duplicate_key", fields)
		}
		return Analysis{}, false, err
	}
	metrics.IncAnalysisCreated()
	telemetry.Info("analysis.created", fields)
	return created, false, nil
}

// LookupExisting re-reads the analysis for a pair, used after losing an insert race.
func (s *Service) LookupExisting(ctx context.Context, resumeText, jobDescriptionText string) (Analysis, bool) {
	return s.Cache.Lookup(ctx, fingerprint.Key(resumeText, jobDescriptionText))
}

// Stats returns cache aggregates.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.Cache.Stats(ctx)
}

// Cleanup applies the retention policy.
func (s *Service) Cleanup(ctx context.Context, daysOld int) (int, error) {
	return s.Cache.Cleanup(ctx, daysOld)
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	ctx, span := telemetry.Tracer("career-gap-backend/analyses").Start(ctx, "llm.complete")
	span.SetAttributes(
		attribute.String("llm.provider", string(s.Provider)),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)
	defer span.End()

	start := time.Now()
	raw, err := s.Complete(ctx, prompt)
	metrics.ObserveProviderDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		var callErr *llm.CallError
		if !errors.As(err, &callErr) {
			err = &llm.CallError{Provider: s.Provider, Err: err}
		}
		return "", err
	}
	return raw, nil
}

func preview(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
