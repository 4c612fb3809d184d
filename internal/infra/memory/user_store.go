package memory

import (
	"context"
	"strings"
	"sync"

	"formbuilder-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository.
type UserStore struct {
	mu     sync.RWMutex
	users  map[int64]domain.User
	nextID int64
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]domain.User)}
}

func (s *UserStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}
