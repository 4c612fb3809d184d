package app

import (
	"context"
	"errors"

	"formbuilder-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository abstracts account lookup and creation.
type UserRepository interface {
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

// SessionStore maps opaque session tokens to user ids (in-memory, Redis).
type SessionStore interface {
	Create(ctx context.Context, token string, userID int64) error
	Lookup(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

// AuthService issues and resolves login sessions. The core workflow never
// touches it; handlers resolve the current user here and pass the id down
// explicitly.
type AuthService struct {
	users    UserRepository
	sessions SessionStore
}

func NewAuthService(users UserRepository, sessions SessionStore) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login verifies the credentials and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Create(ctx, token, user.ID); err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// Logout invalidates a session token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// CurrentUser resolves a session token to the logged-in user id.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrUnauthenticated
	}
	userID, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return 0, domain.ErrUnauthenticated
	}
	return userID, nil
}

// HashPassword produces the bcrypt hash stored on user rows. Used by the seed
// path and tests.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
