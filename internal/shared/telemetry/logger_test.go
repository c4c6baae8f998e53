package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecretFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("provider.configured", map[string]any{
		"provider":       "openai",
		"openai_api_key": "sk-live",
		"nested":         map[string]any{"authorization": "Bearer x", "model": "gpt-4o-mini"},
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["openai_api_key"] != "[REDACTED]" {
		t.Fatalf("expected api key redacted, got %v", fields["openai_api_key"])
	}
	if fields["provider"] != "openai" {
		t.Fatalf("expected provider kept, got %v", fields["provider"])
	}
	nested, _ := fields["nested"].(map[string]any)
	if nested["authorization"] != "[REDACTED]" || nested["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected nested fields %v", nested)
	}
}

func TestLevelsAndErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Warn("cache.lookup_failed", map[string]any{"error": errors.New("boom")})
	Error("http.error", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel || entries[1].Level != zap.ErrorLevel {
		t.Fatalf("unexpected levels %v %v", entries[0].Level, entries[1].Level)
	}
	if entries[0].ContextMap()["error"] != "boom" {
		t.Fatalf("expected error message field, got %v", entries[0].ContextMap()["error"])
	}
}
