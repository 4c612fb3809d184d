package redis

import (
	"context"
	"time"

	"formbuilder-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps login sessions in Redis so they survive restarts and can
// be shared across instances. Keys carry the configured TTL; an expired key
// simply reads as unauthenticated.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, token string, userID int64) error {
	return s.client.Set(ctx, s.key(token), userID, s.ttl).Err()
}

func (s *SessionStore) Lookup(ctx context.Context, token string) (int64, error) {
	userID, err := s.client.Get(ctx, s.key(token)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrUnauthenticated
		}
		return 0, err
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}
