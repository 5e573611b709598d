package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domnoval/THE-37TH-MOVE/internal/storage"
)

var ErrNotFound = errors.New("session not found")

// Session is a caller-scoped continuity record keyed by an opaque token. It is
// independent of personality.
type Session struct {
	Token      string    `json:"session_token"`
	FirstSeen  time.Time `json:"first_seen"`
	LastActive time.Time `json:"last_active"`
	TurnCount  int       `json:"turn_count"`
}

// Store persists sessions. Sessions are never deleted here; retention is owned
// by an external policy.
type Store interface {
	// Get returns ErrNotFound for unknown tokens.
	Get(ctx context.Context, token string) (Session, error)
	// GetOrCreate inserts candidate unless a session with the same token
	// exists, in which case the stored session is returned unchanged.
	GetOrCreate(ctx context.Context, candidate Session) (stored Session, created bool, err error)
	// Touch moves LastActive forward to at and, when countTurn is set,
	// increments TurnCount. A session already starts at one turn, so the
	// turn that created it is recorded without counting.
	Touch(ctx context.Context, token string, at time.Time, countTurn bool) error
	Close() error
}

// NewStore picks the backend named by databaseURL; an empty URL yields an
// in-memory store.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	backend, dsn, err := storage.Classify(databaseURL)
	if err != nil {
		return nil, err
	}
	switch backend {
	case storage.BackendPostgres:
		return NewPostgresStore(ctx, dsn)
	case storage.BackendSQLite:
		return NewSQLiteStore(ctx, dsn)
	case storage.BackendMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q", backend)
	}
}

func turnDelta(countTurn bool) int {
	if countTurn {
		return 1
	}
	return 0
}
