package repository

import (
	"context"

	"identity-store/internal/db"
	"identity-store/internal/storage"
)

const repoName = "membership"

type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns a user-role repository backed by q, which may
// be a *sql.DB or a transaction handle.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Add inserts the (user, role) association.
func (r *PostgresRepository) Add(ctx context.Context, userID, roleID string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
	return storage.Wrap(repoName, "Add", err)
}

// ListRoleNamesByUser returns the names of all roles assigned to the user.
func (r *PostgresRepository) ListRoleNamesByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT r.name FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.name`, userID)
	if err != nil {
		return nil, storage.Wrap(repoName, "ListRoleNamesByUser", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storage.Wrap(repoName, "ListRoleNamesByUser", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap(repoName, "ListRoleNamesByUser", err)
	}
	return names, nil
}

// Remove deletes the (user, role) association if present.
func (r *PostgresRepository) Remove(ctx context.Context, userID, roleID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return storage.Wrap(repoName, "Remove", err)
}

// DeleteAllByUser removes every association for the user.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1`, userID)
	return storage.Wrap(repoName, "DeleteAllByUser", err)
}
