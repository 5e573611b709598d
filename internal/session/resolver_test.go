package session

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`^session_\d+_[0-9a-f]{9}$`)

func TestResolveCreatesSessionForBlankToken(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	s, created, err := r.Resolve(context.Background(), "   ")
	require.NoError(t, err)
	require.True(t, created)
	require.Regexp(t, tokenPattern, s.Token)
	require.Equal(t, 1, s.TurnCount)
	require.Equal(t, s.FirstSeen, s.LastActive)
	require.Equal(t, 1, store.Len())
}

func TestResolveReusesKnownToken(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)
	ctx := context.Background()

	first, created, err := r.Resolve(ctx, "session_known")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := r.Resolve(ctx, "session_known")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.Len(), "resolving a known token must not create a duplicate")
}

func TestResolveUnknownTokenCreatesIt(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	s, created, err := r.Resolve(context.Background(), "caller-supplied")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "caller-supplied", s.Token)
}

func TestResolveReturnsExistingSessionUnchanged(t *testing.T) {
	store := NewInMemoryStore()
	seen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	_, _, err := store.GetOrCreate(context.Background(), Session{Token: "t1", FirstSeen: seen, LastActive: seen, TurnCount: 7})
	require.NoError(t, err)

	r := NewResolver(store)
	r.now = func() time.Time { return seen.Add(time.Hour) }
	s, created, err := r.Resolve(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 7, s.TurnCount)
	require.Equal(t, seen, s.LastActive)
}

func TestNewTokenFormat(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	a := NewToken(at)
	b := NewToken(at)
	require.Regexp(t, tokenPattern, a)
	require.Contains(t, a, "_1700000000123_")
	require.NotEqual(t, a, b)
}
