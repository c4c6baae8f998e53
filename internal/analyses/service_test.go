package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"career-gap-backend/internal/fingerprint"
	"career-gap-backend/internal/llm"
)

var (
	testResume = "Jane Doe\nSenior backend engineer with eight years of Go, Postgres and AWS experience."
	testJob    = "We are hiring a platform engineer with Kubernetes and Terraform skills."
)

func modelOutput(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"missing_skills":      []string{"Kubernetes", "Terraform"},
		"learning_steps":      []string{"Complete the CKA course", "Write Terraform modules", "Run a homelab cluster"},
		"interview_questions": []string{"How do you debug a CrashLoopBackOff?", "How do you structure Terraform state?", "Explain pod scheduling."},
		"roadmap_markdown":    "# Roadmap\n\n" + strings.Repeat("Week by week plan with resources. ", 10),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return "```json\n" + string(data) + "\n```"
}

type fakeProvider struct {
	calls int32
	fn    func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeProvider) complete(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(ctx, prompt)
}

func newTestService(t *testing.T, repo Repo, fn func(ctx context.Context, prompt string) (string, error)) (*Service, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{fn: fn}
	cache := NewCache(repo, nil)
	t.Cleanup(cache.Wait)
	return NewService(cache, llm.ProviderOpenAI, provider.complete, 0), provider
}

func TestAnalyzeRejectsShortResumeBeforeProviderCall(t *testing.T) {
	svc, provider := newTestService(t, NewMemoryRepo(), func(ctx context.Context, prompt string) (string, error) {
		return modelOutput(t), nil
	})

	_, _, err := svc.Analyze(context.Background(), strings.Repeat("a", 49), testJob)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Details[0].Field != "resumeText" {
		t.Fatalf("unexpected details %+v", validationErr.Details)
	}
	if atomic.LoadInt32(&provider.calls) != 0 {
		t.Fatalf("expected no provider call")
	}
}

func TestValidateInputBounds(t *testing.T) {
	tests := []struct {
		name   string
		resume string
		job    string
		fields []string
	}{
		{name: "minimums", resume: strings.Repeat("a", MinResumeChars), job: strings.Repeat("b", MinJobDescriptionChars)},
		{name: "maximums", resume: strings.Repeat("a", MaxResumeChars), job: strings.Repeat("b", MaxJobDescriptionChars)},
		{name: "resume too long", resume: strings.Repeat("a", MaxResumeChars+1), job: testJob, fields: []string{"resumeText"}},
		{name: "job too short", resume: testResume, job: strings.Repeat("b", MinJobDescriptionChars-1), fields: []string{"jobDescriptionText"}},
		{name: "both", resume: "", job: "", fields: []string{"resumeText", "jobDescriptionText"}},
		{name: "multibyte counts characters", resume: strings.Repeat("é", MinResumeChars), job: strings.Repeat("ü", MinJobDescriptionChars)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.resume, tt.job)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(validationErr.Details) != len(tt.fields) {
				t.Fatalf("expected %d details, got %+v", len(tt.fields), validationErr.Details)
			}
			for i, field := range tt.fields {
				if validationErr.Details[i].Field != field {
					t.Fatalf("expected field %s, got %s", field, validationErr.Details[i].Field)
				}
			}
		})
	}
}

func TestAnalyzeCachesIdenticalInputs(t *testing.T) {
	repo := NewMemoryRepo()
	svc, provider := newTestService(t, repo, func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, testResume) {
			t.Errorf("expected raw resume in prompt")
		}
		return modelOutput(t), nil
	})

	first, cached, err := svc.Analyze(context.Background(), testResume, testJob)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if cached {
		t.Fatalf("expected first call to be fresh")
	}
	if first.CacheKey != fingerprint.Key(testResume, testJob) {
		t.Fatalf("unexpected cache key %s", first.CacheKey)
	}
	if first.ResumeText != testResume {
		t.Fatalf("expected raw resume stored")
	}

	second, cached, err := svc.Analyze(context.Background(), "  "+strings.ToUpper(testResume)+"\r\n", testJob)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if !cached {
		t.Fatalf("expected second call to be cached")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same record, got %s and %s", second.ID, first.ID)
	}
	if got := atomic.LoadInt32(&provider.calls); got != 1 {
		t.Fatalf("expected exactly one provider call, got %d", got)
	}
	svc.Cache.Wait()
	stats, _ := repo.Stats(context.Background())
	if stats.TotalAnalyses != 1 || stats.AverageAccessCount != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAnalyzeInvalidOutputIsNotStored(t *testing.T) {
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo, func(ctx context.Context, prompt string) (string, error) {
		return `{"missing_skills": [], "learning_steps": [], "interview_questions": [], "roadmap_markdown": ""}`, nil
	})

	_, _, err := svc.Analyze(context.Background(), testResume, testJob)
	if !errors.Is(err, ErrProviderOutput) {
		t.Fatalf("expected ErrProviderOutput, got %v", err)
	}
	var violation *SchemaViolation
	if !errors.As(err, &violation) || violation.Field != "missing_skills" {
		t.Fatalf("expected missing_skills violation, got %v", err)
	}
	stats, _ := repo.Stats(context.Background())
	if stats.TotalAnalyses != 0 {
		t.Fatalf("expected nothing stored, got %d", stats.TotalAnalyses)
	}
}

func TestAnalyzeProviderErrorIsCallError(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo(), func(ctx context.Context, prompt string) (string, error) {
		return "", llm.ErrEmptyResponse
	})

	_, _, err := svc.Analyze(context.Background(), testResume, testJob)
	var callErr *llm.CallError
	if !errors.As(err, &callErr) || callErr.Provider != llm.ProviderOpenAI {
		t.Fatalf("expected CallError, got %v", err)
	}
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse in chain")
	}
}

func TestAnalyzeProviderTimeout(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo(), func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc.Timeout = 20 * time.Millisecond

	_, _, err := svc.Analyze(context.Background(), testResume, testJob)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAnalyzeLostRaceReturnsDuplicateKey(t *testing.T) {
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo, func(ctx context.Context, prompt string) (string, error) {
		// a concurrent request stores the same key while this one waits on the provider
		winner := sampleAnalysis()
		winner.CacheKey = fingerprint.Key(testResume, testJob)
		if err := repo.Create(context.Background(), winner); err != nil {
			t.Errorf("seed winner: %v", err)
		}
		return modelOutput(t), nil
	})

	_, _, err := svc.Analyze(context.Background(), testResume, testJob)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	existing, found := svc.LookupExisting(context.Background(), testResume, testJob)
	if !found || existing.ID != sampleAnalysis().ID {
		t.Fatalf("expected winner record, got %+v", existing)
	}
}
