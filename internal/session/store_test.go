package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreContract(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestSQLiteStoreContract(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestPostgresStoreContract(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := NewPostgresStore(context.Background(), url)
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestNewStoreDefaultsToInMemory(t *testing.T) {
	store, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	require.IsType(t, &InMemoryStore{}, store)
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	token := NewToken(time.Now())
	start := time.Now().UTC().Truncate(time.Millisecond)

	_, err := store.Get(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)

	created, ok, err := store.GetOrCreate(ctx, Session{Token: token, FirstSeen: start, LastActive: start, TurnCount: 1})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, created.TurnCount)

	again, ok, err := store.GetOrCreate(ctx, Session{Token: token, FirstSeen: start.Add(time.Hour), LastActive: start.Add(time.Hour), TurnCount: 1})
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, again.FirstSeen.Equal(start), "existing session must be returned unchanged")

	// The creating turn only refreshes last_active.
	soon := start.Add(time.Second)
	require.NoError(t, store.Touch(ctx, token, soon, false))
	got, err := store.Get(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 1, got.TurnCount)
	require.True(t, got.LastActive.Equal(soon))

	later := start.Add(time.Minute)
	require.NoError(t, store.Touch(ctx, token, later, true))
	require.NoError(t, store.Touch(ctx, token, start, true))

	got, err = store.Get(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 3, got.TurnCount)
	require.True(t, got.LastActive.Equal(later), "last_active must never move backwards")

	require.ErrorIs(t, store.Touch(ctx, "missing-"+token, later, true), ErrNotFound)
}
