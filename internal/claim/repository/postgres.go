package repository

import (
	"context"

	"identity-store/internal/claim/domain"
	"identity-store/internal/db"
	"identity-store/internal/storage"
)

const repoName = "claim"

type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns a claim repository backed by q, which may be a
// *sql.DB or a transaction handle.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Add inserts the claim for its user.
func (r *PostgresRepository) Add(ctx context.Context, c *domain.Claim) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_claims (user_id, claim_type, claim_value) VALUES ($1, $2, $3)`,
		c.UserID, c.Type, c.Value)
	return storage.Wrap(repoName, "Add", err)
}

// ListByUser returns all claims for the user.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Claim, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT user_id, claim_type, claim_value FROM user_claims
		 WHERE user_id = $1 ORDER BY claim_type, claim_value`, userID)
	if err != nil {
		return nil, storage.Wrap(repoName, "ListByUser", err)
	}
	defer rows.Close()

	var claims []*domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.UserID, &c.Type, &c.Value); err != nil {
			return nil, storage.Wrap(repoName, "ListByUser", err)
		}
		claims = append(claims, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap(repoName, "ListByUser", err)
	}
	return claims, nil
}

// Remove deletes the claims matching the exact (type, value) pair for the user.
func (r *PostgresRepository) Remove(ctx context.Context, c *domain.Claim) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM user_claims WHERE user_id = $1 AND claim_type = $2 AND claim_value = $3`,
		c.UserID, c.Type, c.Value)
	return storage.Wrap(repoName, "Remove", err)
}

// DeleteAllByUser removes every claim for the user.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM user_claims WHERE user_id = $1`, userID)
	return storage.Wrap(repoName, "DeleteAllByUser", err)
}
