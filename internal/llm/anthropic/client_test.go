package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"career-gap-backend/internal/llm"
)

func newTestClient(t *testing.T, body string, status int) (*Client, *int32, *map[string]any) {
	t.Helper()
	var calls int32
	captured := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := New(llm.Settings{
		APIKey:      "test-key",
		Temperature: 0.7,
		BaseURL:     srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, &calls, &captured
}

func TestCompleteSkipsNonTextBlocks(t *testing.T) {
	body := `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",
		"content":[{"type":"thinking","thinking":"hmm","signature":"sig"},{"type":"text","text":"{\"a\":1}"},{"type":"text","text":"second"}],
		"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`
	client, calls, captured := newTestClient(t, body, http.StatusOK)

	text, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != `{"a":1}` {
		t.Fatalf("unexpected text %q", text)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected one call")
	}
	if (*captured)["model"] != DefaultModel {
		t.Fatalf("expected default model, got %v", (*captured)["model"])
	}
	if (*captured)["max_tokens"] != float64(defaultMaxTokens) {
		t.Fatalf("unexpected max_tokens %v", (*captured)["max_tokens"])
	}
}

func TestCompleteWithoutTextIsEmpty(t *testing.T) {
	body := `{"id":"msg_2","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",
		"content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`
	client, _, _ := newTestClient(t, body, http.StatusOK)

	if _, err := client.Complete(context.Background(), "prompt"); !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestCompleteAuthErrorPropagates(t *testing.T) {
	body := `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`
	client, calls, _ := newTestClient(t, body, http.StatusUnauthorized)

	if _, err := client.Complete(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error")
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected one call, got %d", *calls)
	}
}
