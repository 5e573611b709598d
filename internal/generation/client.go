// Package generation invokes the external text-generation capability with a
// composed prompt and fixed sampling policy.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable covers unreachable providers and non-success statuses.
	ErrUnavailable = errors.New("generation unavailable")
	// ErrEmptyCandidate is returned when a success response carries no usable text.
	ErrEmptyCandidate = errors.New("generation returned no usable candidate")
)

// Sampling is fixed policy, never taken from the request.
type Sampling struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// DefaultSampling matches the service defaults.
func DefaultSampling() Sampling {
	return Sampling{Temperature: 0.8, TopP: 0.95, TopK: 40, MaxOutputTokens: 1024}
}

// Client makes exactly one attempt per call; retries are the caller's concern.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

func (f ClientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ProviderError records a failed provider call. It matches ErrUnavailable and
// the underlying cause under errors.Is.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s status %d: %v", ErrUnavailable, e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrUnavailable, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{ErrUnavailable, e.Err} }

// Config controls client construction.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Sampling Sampling
}

// NewClient builds the client named by cfg.Provider ("gemini" or "mock").
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		return NewGenAIClient(ctx, cfg)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Provider)
	}
}

// IsRetryableStatus classifies provider HTTP statuses a caller could retry.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Classify labels a generation error for metrics: "timeout",
// "empty_candidate", "retryable", or "fatal".
func Classify(err error) string {
	var pe *ProviderError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyCandidate):
		return "empty_candidate"
	case errors.As(err, &pe) && pe.StatusCode != 0:
		if IsRetryableStatus(pe.StatusCode) {
			return "retryable"
		}
		return "fatal"
	case errors.Is(err, ErrUnavailable):
		// Transport failures without a status.
		return "retryable"
	default:
		return "fatal"
	}
}
