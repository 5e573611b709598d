package memory

import (
	"context"
	"time"
)

// DefaultWindow bounds the memory window used to condition a reply.
const DefaultWindow = 10

// Entry is one completed turn. Entries are written once and never updated or
// deleted by this service.
type Entry struct {
	ID            string    `json:"id"`
	SessionToken  string    `json:"session_token"`
	PersonalityID string    `json:"personality_id"`
	UserMessage   string    `json:"user_message"`
	AIResponse    string    `json:"ai_response"`
	Topics        []string  `json:"topics"`
	Sentiment     float64   `json:"sentiment"`
	Strength      float64   `json:"strength"`
	PIIRedacted   bool      `json:"pii_redacted"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is an append-only log of turns queried by (session, personality).
type Store interface {
	// Append stores e, assigning ID and CreatedAt when unset, and returns the
	// stored entry.
	Append(ctx context.Context, e Entry) (Entry, error)
	// Recent returns at most limit entries matching both keys, newest first.
	// No history yields an empty result and a nil error.
	Recent(ctx context.Context, sessionToken, personalityID string, limit int) ([]Entry, error)
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultWindow
	}
	return limit
}
