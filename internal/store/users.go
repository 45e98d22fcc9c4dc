package store

import (
	"context"
	"errors"
	"strings"

	"github.com/cartboardapp/cartboard-server/internal/domain"
)

var (
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")
)

// GetUserByEmail retrieves a user by email address. Lookups are
// case-insensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.Users.GetByIndex(ctx, "email", email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsDeleted() {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUser retrieves a user by ID, hiding soft-deleted accounts.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsDeleted() {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns all non-deleted users.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for user, err := range s.Users.List(ctx) {
		if err != nil {
			return nil, err
		}
		if user.IsDeleted() {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// normalizeEmail normalizes an email address for consistent lookups.
// Lowercases and trims whitespace.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
