package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type scope struct {
	session     string
	personality string
}

// InMemoryStore is a simple in-process memory store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[scope][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[scope][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Topics = append([]string(nil), e.Topics...)

	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope{session: e.SessionToken, personality: e.PersonalityID}
	s.entries[k] = append(s.entries[k], e)
	return e, nil
}

func (s *InMemoryStore) Recent(_ context.Context, sessionToken, personalityID string, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	arr := s.entries[scope{session: sessionToken, personality: personalityID}]
	// Newest appended first; the stable sort keeps that order for equal timestamps.
	out := make([]Entry, 0, len(arr))
	for i := len(arr) - 1; i >= 0; i-- {
		out = append(out, arr[i])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count reports how many entries exist for one (session, personality) pair.
func (s *InMemoryStore) Count(sessionToken, personalityID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[scope{session: sessionToken, personality: personalityID}])
}

func (s *InMemoryStore) Close() error { return nil }
