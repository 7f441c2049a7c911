package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"identity-store/internal/db"
	"identity-store/internal/storage"
	"identity-store/internal/user/domain"
)

const repoName = "user"

const userColumns = `id, user_name, nickname, email, password_hash, security_stamp,
	is_confirmed, confirmation_token, created_at, company,
	lockout_enabled, lockout_end, access_failed_count`

type PostgresRepository struct {
	q db.DBTX
}

// NewPostgresRepository returns a user repository backed by q, which may be a
// *sql.DB or a transaction handle.
func NewPostgresRepository(q db.DBTX) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "GetByID")
}

// GetByUserName returns the user with the given login name, compared
// case-insensitively, or nil if not found.
func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(user_name) = LOWER($1)`, userName)
	return scanUser(row, "GetByUserName")
}

// GetByEmail returns the user with the given email, compared
// case-insensitively, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row, "GetByEmail")
}

// Create persists the user. ID and CreatedAt must already be set; the store
// facade assigns them.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID, u.UserName, nullString(u.Nickname), u.Email,
		nullString(u.PasswordHash), nullString(u.SecurityStamp),
		u.IsConfirmed, nullString(u.ConfirmationToken), u.CreatedAt,
		nullString(u.Company), u.LockoutEnabled, nullTime(u.LockoutEnd),
		u.AccessFailedCount)
	return storage.Wrap(repoName, "Create", err)
}

// Update overwrites the mutable fields of the user row. ID and CreatedAt are
// never written.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users
		 SET user_name = $2, nickname = $3, email = $4, password_hash = $5,
		     security_stamp = $6, is_confirmed = $7, confirmation_token = $8,
		     company = $9, lockout_enabled = $10, lockout_end = $11,
		     access_failed_count = $12
		 WHERE id = $1`,
		u.ID, u.UserName, nullString(u.Nickname), u.Email,
		nullString(u.PasswordHash), nullString(u.SecurityStamp),
		u.IsConfirmed, nullString(u.ConfirmationToken),
		nullString(u.Company), u.LockoutEnabled, nullTime(u.LockoutEnd),
		u.AccessFailedCount)
	return storage.Wrap(repoName, "Update", err)
}

// Delete removes the user row. Association rows are the caller's concern; the
// store facade deletes them in the same transaction.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return storage.Wrap(repoName, "Delete", err)
}

func scanUser(row *sql.Row, op string) (*domain.User, error) {
	var (
		u                 domain.User
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
		return nil, storage.Wrap(repoName, op, err)
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
