package repository

import "context"

// Repository defines persistence for the user-role junction. Associations have
// no identity of their own; rows are keyed by (user id, role id).
type Repository interface {
	Add(ctx context.Context, userID, roleID string) error
	// ListRoleNamesByUser returns the names of all roles assigned to the user,
	// resolved through the roles table in one statement.
	ListRoleNamesByUser(ctx context.Context, userID string) ([]string, error)
	Remove(ctx context.Context, userID, roleID string) error
	// DeleteAllByUser removes every association for the user; used when the
	// owning user row is deleted.
	DeleteAllByUser(ctx context.Context, userID string) error
}
