package repository

import (
	"context"

	"identity-store/internal/role/domain"
)

// Repository defines persistence for roles.
type Repository interface {
	// Create persists the role. The caller must have assigned ID.
	Create(ctx context.Context, r *domain.Role) error
	// GetIDByName returns the role id for name, or "" if no such role exists.
	GetIDByName(ctx context.Context, name string) (string, error)
	// GetNameByID returns the role name for id, or "" if no such role exists.
	GetNameByID(ctx context.Context, id string) (string, error)
}
