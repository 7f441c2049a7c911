package repository

import (
	"context"

	"identity-store/internal/extlogin/domain"
	userdomain "identity-store/internal/user/domain"
)

// Repository defines persistence for external logins.
type Repository interface {
	// Add inserts the login. The caller must have assigned ID.
	Add(ctx context.Context, l *domain.ExternalLogin) error
	// Remove deletes the login matching (user id, provider, key).
	Remove(ctx context.Context, l *domain.ExternalLogin) error
	ListByUser(ctx context.Context, userID string) ([]*domain.ExternalLogin, error)
	// FindUserByProviderKey resolves a (provider, key) pair to its user in a
	// single joined statement, or nil if no such login exists.
	FindUserByProviderKey(ctx context.Context, provider, key string) (*userdomain.User, error)
	// DeleteAllByUser removes every login for the user; used when the owning
	// user row is deleted.
	DeleteAllByUser(ctx context.Context, userID string) error
}
