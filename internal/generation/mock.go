package generation

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no provider key is configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return buildMockReply(prompt), nil
}

// buildMockReply echoes the last user line of the prompt.
func buildMockReply(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if msg, ok := strings.CutPrefix(lines[i], "User: "); ok {
			msg = strings.TrimSpace(msg)
			if msg != "" {
				return fmt.Sprintf("I hear you: %s", msg)
			}
		}
	}
	return "I am listening."
}
