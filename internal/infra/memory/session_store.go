package memory

import (
	"context"
	"sync"
	"time"

	"formbuilder-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore with the
// same TTL behavior as the Redis one.
type SessionStore struct {
	ttl      time.Duration
	clock    func() time.Time
	mu       sync.Mutex
	sessions map[string]session
}

type session struct {
	userID    int64
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]session),
	}
}

func (s *SessionStore) Create(_ context.Context, token string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expiresAt: s.clock().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Lookup(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return 0, domain.ErrUnauthenticated
	}
	if s.ttl > 0 && entry.expiresAt.Before(s.clock()) {
		delete(s.sessions, token)
		return 0, domain.ErrUnauthenticated
	}
	return entry.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
