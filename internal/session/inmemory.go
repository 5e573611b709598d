package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps sessions in process for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Get(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *sess, nil
}

func (s *InMemoryStore) GetOrCreate(_ context.Context, candidate Session) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[candidate.Token]; ok {
		return *existing, false, nil
	}
	c := candidate
	s.sessions[c.Token] = &c
	return c, true, nil
}

func (s *InMemoryStore) Touch(_ context.Context, token string, at time.Time, countTurn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return ErrNotFound
	}
	if countTurn {
		sess.TurnCount++
	}
	if at.After(sess.LastActive) {
		sess.LastActive = at
	}
	return nil
}

// Len reports the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *InMemoryStore) Close() error { return nil }
