package repository

import (
	"context"
	"database/sql"
	"errors"

	"identity-store/internal/db"
	"identity-store/internal/extlogin/domain"
	"identity-store/internal/storage"
	userdomain "identity-store/internal/user/domain"
)

const repoName = "extlogin"

type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns an external-login repository backed by q,
// which may be a *sql.DB or a transaction handle.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Add inserts the login. ID must already be set by the caller. The unique
// (login_provider, provider_key) index rejects a pair already linked to a user.
func (r *PostgresRepository) Add(ctx context.Context, l *domain.ExternalLogin) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO external_logins (id, user_id, login_provider, provider_key)
		 VALUES ($1, $2, $3, $4)`,
		l.ID, l.UserID, l.LoginProvider, l.ProviderKey)
	return storage.Wrap(repoName, "Add", err)
}

// Remove deletes the login matching (user id, provider, key).
func (r *PostgresRepository) Remove(ctx context.Context, l *domain.ExternalLogin) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM external_logins
		 WHERE user_id = $1 AND login_provider = $2 AND provider_key = $3`,
		l.UserID, l.LoginProvider, l.ProviderKey)
	return storage.Wrap(repoName, "Remove", err)
}

// ListByUser returns all external logins for the user.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ExternalLogin, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, login_provider, provider_key FROM external_logins
		 WHERE user_id = $1 ORDER BY login_provider, provider_key`, userID)
	if err != nil {
		return nil, storage.Wrap(repoName, "ListByUser", err)
	}
	defer rows.Close()

	var logins []*domain.ExternalLogin
	for rows.Next() {
		var l domain.ExternalLogin
		if err := rows.Scan(&l.ID, &l.UserID, &l.LoginProvider, &l.ProviderKey); err != nil {
			return nil, storage.Wrap(repoName, "ListByUser", err)
		}
		logins = append(logins, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap(repoName, "ListByUser", err)
	}
	return logins, nil
}

// FindUserByProviderKey resolves a (provider, key) pair to its user in a
// single joined statement, or nil if no such login exists.
func (r *PostgresRepository) FindUserByProviderKey(ctx context.Context, provider, key string) (*userdomain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT u.id, u.user_name, u.nickname, u.email, u.password_hash,
		        u.security_stamp, u.is_confirmed, u.confirmation_token,
		        u.created_at, u.company, u.lockout_enabled, u.lockout_end,
		        u.access_failed_count
		 FROM users u
		 JOIN external_logins e ON e.user_id = u.id
		 WHERE e.login_provider = $1 AND e.provider_key = $2`,
		provider, key)

	var (
		u                 userdomain.User
		nickname          sql.NullString
		passwordHash      sql.NullString
		securityStamp     sql.NullString
		confirmationToken sql.NullString
		company           sql.NullString
		lockoutEnd        sql.NullTime
	)
	err := row.Scan(&u.ID, &u.UserName, &nickname, &u.Email, &passwordHash,
		&securityStamp, &u.IsConfirmed, &confirmationToken, &u.CreatedAt,
		&company, &u.LockoutEnabled, &lockoutEnd, &u.AccessFailedCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.Wrap(repoName, "FindUserByProviderKey", err)
	}
	u.Nickname = nickname.String
	u.PasswordHash = passwordHash.String
	u.SecurityStamp = securityStamp.String
	u.ConfirmationToken = confirmationToken.String
	u.Company = company.String
	if lockoutEnd.Valid {
		u.LockoutEnd = lockoutEnd.Time
	}
	return &u, nil
}

// DeleteAllByUser removes every login for the user.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM external_logins WHERE user_id = $1`, userID)
	return storage.Wrap(repoName, "DeleteAllByUser", err)
}
