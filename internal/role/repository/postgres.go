package repository

import (
	"context"
	"database/sql"
	"errors"

	"identity-store/internal/db"
	"identity-store/internal/role/domain"
	"identity-store/internal/storage"
)

const repoName = "role"

type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns a role repository backed by q, which may be a
// *sql.DB or a transaction handle.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Create persists the role. ID must already be set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, role *domain.Role) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name)
	return storage.Wrap(repoName, "Create", err)
}

// GetIDByName returns the role id for name, or "" if no such role exists.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := r.q.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", storage.Wrap(repoName, "GetIDByName", err)
	}
	return id, nil
}

// GetNameByID returns the role name for id, or "" if no such role exists.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetNameByID(ctx context.Context, id string) (string, error) {
	var name string
	err := r.q.QueryRowContext(ctx, `SELECT name FROM roles WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", storage.Wrap(repoName, "GetNameByID", err)
	}
	return name, nil
}
