package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestGenAIClient(t *testing.T, handler http.HandlerFunc) *GenAIClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewGenAIClient(context.Background(), Config{
		APIKey:   "test-key",
		Model:    "gemini-test",
		BaseURL:  ts.URL + "/",
		Sampling: DefaultSampling(),
	})
	if err != nil {
		t.Fatalf("NewGenAIClient() error = %v", err)
	}
	return c
}

func TestGenAIClientExtractsFirstCandidate(t *testing.T) {
	var body map[string]any
	c := newTestGenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-test:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[
			{"content":{"role":"model","parts":[{"text":"I'm doing well, thank you!"}]}},
			{"content":{"role":"model","parts":[{"text":"second"}]}}
		]}`)
	})

	got, err := c.Generate(context.Background(), "User: Hello\nAI:")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "I'm doing well, thank you!" {
		t.Fatalf("Generate() = %q", got)
	}

	gen, _ := body["generationConfig"].(map[string]any)
	if gen == nil {
		t.Fatalf("request missing generationConfig: %v", body)
	}
	if gen["topK"] != float64(40) || gen["maxOutputTokens"] != float64(1024) {
		t.Fatalf("unexpected sampling config: %v", gen)
	}
}

func TestGenAIClientEmptyCandidate(t *testing.T) {
	c := newTestGenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"   "}]}}]}`)
	})

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyCandidate) {
		t.Fatalf("Generate() error = %v, want ErrEmptyCandidate", err)
	}
	if Classify(err) != "empty_candidate" {
		t.Fatalf("Classify() = %q, want empty_candidate", Classify(err))
	}
}

func TestGenAIClientNoCandidates(t *testing.T) {
	c := newTestGenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})
	if _, err := c.Generate(context.Background(), "prompt"); !errors.Is(err, ErrEmptyCandidate) {
		t.Fatalf("Generate() error = %v, want ErrEmptyCandidate", err)
	}
}

func TestGenAIClientNonSuccessStatusIsUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := newTestGenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
	})

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Generate() error = %v, want ErrUnavailable", err)
	}
	if Classify(err) != "retryable" {
		t.Fatalf("Classify() = %q, want retryable", Classify(err))
	}
	if calls.Load() != 1 {
		t.Fatalf("provider called %d times, want exactly 1", calls.Load())
	}
}

func TestNewGenAIClientRequiresKey(t *testing.T) {
	if _, err := NewGenAIClient(context.Background(), Config{}); err == nil {
		t.Fatalf("NewGenAIClient() expected error without API key")
	}
}
