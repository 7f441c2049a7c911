package repository

import (
	"context"

	"identity-store/internal/user/domain"
)

// Repository defines persistence for users. Each operation issues exactly one
// parameterized statement on a connection acquired for the call.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByUserName looks the user up case-insensitively.
	GetByUserName(ctx context.Context, userName string) (*domain.User, error)
	// GetByEmail looks the user up case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists the user. The caller must have assigned ID and CreatedAt.
	Create(ctx context.Context, u *domain.User) error
	// Update overwrites all mutable fields of the row; ID and CreatedAt are
	// immutable and never written.
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}
