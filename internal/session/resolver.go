package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resolver maps an optional caller token onto a durable session, creating it
// on first reference. Unknown tokens never produce an error.
type Resolver struct {
	store    Store
	now      func() time.Time
	newToken func(time.Time) string
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: NewToken,
	}
}

// Resolve returns the session for token, synthesizing a token when it is
// blank. New sessions start with TurnCount 1 and FirstSeen == LastActive.
func (r *Resolver) Resolve(ctx context.Context, token string) (Session, bool, error) {
	now := r.now()
	token = strings.TrimSpace(token)
	if token == "" {
		token = r.newToken(now)
	}

	s, created, err := r.store.GetOrCreate(ctx, Session{
		Token:      token,
		FirstSeen:  now,
		LastActive: now,
		TurnCount:  1,
	})
	if err != nil {
		return Session{}, false, fmt.Errorf("resolve session: %w", err)
	}
	return s, created, nil
}

// NewToken builds "session_<unix millis>_<9 random chars>". Uniqueness is
// probabilistic.
func NewToken(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", at.UnixMilli(), suffix)
}
