package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GenAIClient calls Gemini generateContent.
type GenAIClient struct {
	client   *genai.Client
	model    string
	sampling Sampling
}

func NewGenAIClient(ctx context.Context, cfg Config) (*GenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIClient{client: client, model: model, sampling: cfg.Sampling}, nil
}

func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.sampling.Temperature),
		TopP:            genai.Ptr(c.sampling.TopP),
		TopK:            genai.Ptr(c.sampling.TopK),
		MaxOutputTokens: c.sampling.MaxOutputTokens,
	})
	if err != nil {
		return "", &ProviderError{Provider: "gemini", StatusCode: statusOf(err), Err: err}
	}

	text := firstCandidateText(resp)
	if text == "" {
		return "", ErrEmptyCandidate
	}
	return text, nil
}

// firstCandidateText returns the first non-blank text part of the first candidate.
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if text := strings.TrimSpace(part.Text); text != "" {
			return text
		}
	}
	return ""
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
