package repository

import (
	"context"

	"identity-store/internal/claim/domain"
)

// Repository defines persistence for user claims.
type Repository interface {
	Add(ctx context.Context, c *domain.Claim) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Claim, error)
	// Remove deletes the claims matching the exact (type, value) pair for the user.
	Remove(ctx context.Context, c *domain.Claim) error
	// DeleteAllByUser removes every claim for the user; used when the owning
	// user row is deleted.
	DeleteAllByUser(ctx context.Context, userID string) error
}
