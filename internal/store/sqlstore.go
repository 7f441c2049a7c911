package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	claimdomain "identity-store/internal/claim/domain"
	claimrepo "identity-store/internal/claim/repository"
	"identity-store/internal/db"
	extdomain "identity-store/internal/extlogin/domain"
	extloginrepo "identity-store/internal/extlogin/repository"
	membershiprepo "identity-store/internal/membership/repository"
	rolerepo "identity-store/internal/role/repository"
	"identity-store/internal/storage"
	userdomain "identity-store/internal/user/domain"
	userrepo "identity-store/internal/user/repository"
)

var tracer = otel.Tracer("identity-store/store")

// Repos groups the table repositories the facade delegates to.
type Repos struct {
	Users       userrepo.Repository
	Roles       rolerepo.Repository
	Memberships membershiprepo.Repository
	Claims      claimrepo.Repository
	Logins      extloginrepo.Repository
}

// TxRunner runs fn atomically. The Repos passed to fn are scoped to the
// transaction; writes through them commit or roll back together.
type TxRunner func(ctx context.Context, fn func(ctx context.Context, r Repos) error) error

// SQLStore implements the Store contract over the table repositories.
// Instances are request-scoped: construct one per unit of work, do not share
// across concurrent requests.
type SQLStore struct {
	repos Repos
	runTx TxRunner
}

var _ Store = (*SQLStore)(nil)

// New returns a SQLStore backed by Postgres repositories on conn.
func New(conn *sql.DB) *SQLStore {
	return &SQLStore{
		repos: postgresRepos(conn),
		runTx: func(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
			return db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
				return fn(ctx, postgresRepos(tx))
			})
		},
	}
}

// NewWithRepos returns a SQLStore over the given repositories and transaction
// runner. Used by tests and by hosts that bring their own storage.
func NewWithRepos(r Repos, runTx TxRunner) *SQLStore {
	return &SQLStore{repos: r, runTx: runTx}
}

func postgresRepos(q db.DBTX) Repos {
	return Repos{
		Users:       userrepo.NewPostgresRepository(q),
		Roles:       rolerepo.NewPostgresRepository(q),
		Memberships: membershiprepo.NewPostgresRepository(q),
		Claims:      claimrepo.NewPostgresRepository(q),
		Logins:      extloginrepo.NewPostgresRepository(q),
	}
}

// Create persists a new user. A fresh id is generated and written into the
// record before the insert runs; any caller-assigned id is discarded.
func (s *SQLStore) Create(ctx context.Context, u *userdomain.User) error {
	ctx, end := s.span(ctx, "Create")
	return end(s.create(ctx, s.repos, u))
}

// CreateInRole persists a new user and assigns it to roleName in one
// transaction. Unknown role names fail with ErrRoleNotFound and nothing is
// committed.
func (s *SQLStore) CreateInRole(ctx context.Context, u *userdomain.User, roleName string) error {
	ctx, end := s.span(ctx, "CreateInRole")
	if roleName == "" {
		return end(ErrEmptyArgument)
	}
	return end(s.runTx(ctx, func(ctx context.Context, r Repos) error {
		if err := s.create(ctx, r, u); err != nil {
			return err
		}
		roleID, err := r.Roles.GetIDByName(ctx, roleName)
		if err != nil {
			return err
		}
		if roleID == "" {
			return ErrRoleNotFound
		}
		return r.Memberships.Add(ctx, u.ID, roleID)
	}))
}

func (s *SQLStore) create(ctx context.Context, r Repos, u *userdomain.User) error {
	if u == nil {
		return ErrNilUser
	}
	if err := u.Validate(); err != nil {
		return err
	}
	u.ID = uuid.NewString()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.Users.Create(ctx, u)
	if storage.IsUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

// Update overwrites the stored row with the record's mutable fields. This is
// the only way in-memory credential changes reach storage.
func (s *SQLStore) Update(ctx context.Context, u *userdomain.User) error {
	ctx, end := s.span(ctx, "Update")
	if u == nil {
		return end(ErrNilUser)
	}
	if u.ID == "" {
		return end(ErrEmptyArgument)
	}
	if err := u.Validate(); err != nil {
		return end(err)
	}
	err := s.repos.Users.Update(ctx, u)
	if storage.IsUniqueViolation(err) {
		return end(ErrDuplicateUser)
	}
	return end(err)
}

// Delete removes the user row and every association row it owns in one
// transaction; no orphaned roles, claims, or logins survive.
func (s *SQLStore) Delete(ctx context.Context, u *userdomain.User) error {
	ctx, end := s.span(ctx, "Delete")
	if u == nil {
		return end(ErrNilUser)
	}
	if u.ID == "" {
		return end(ErrEmptyArgument)
	}
	return end(s.runTx(ctx, func(ctx context.Context, r Repos) error {
		if err := r.Memberships.DeleteAllByUser(ctx, u.ID); err != nil {
			return err
		}
		if err := r.Claims.DeleteAllByUser(ctx, u.ID); err != nil {
			return err
		}
		if err := r.Logins.DeleteAllByUser(ctx, u.ID); err != nil {
			return err
		}
		return r.Users.Delete(ctx, u.ID)
	}))
}

// GetByID returns the user for id, or (nil, nil) if not found.
func (s *SQLStore) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	ctx, end := s.span(ctx, "GetByID")
	if id == "" {
		return nil, end(ErrEmptyArgument)
	}
	u, err := s.repos.Users.GetByID(ctx, id)
	return u, end(err)
}

// GetByUserName returns the user with the given login name, compared
// case-insensitively, or (nil, nil) if not found.
func (s *SQLStore) GetByUserName(ctx context.Context, userName string) (*userdomain.User, error) {
	ctx, end := s.span(ctx, "GetByUserName")
	if userName == "" {
		return nil, end(ErrEmptyArgument)
	}
	u, err := s.repos.Users.GetByUserName(ctx, userName)
	return u, end(err)
}

// SetPasswordHash sets the hash on the in-memory record only; persist with Update.
func (s *SQLStore) SetPasswordHash(u *userdomain.User, hash string) error {
	if u == nil {
		return ErrNilUser
	}
	u.SetPasswordHash(hash)
	return nil
}

// GetPasswordHash reads the hash from the in-memory record; no storage round trip.
func (s *SQLStore) GetPasswordHash(u *userdomain.User) (string, error) {
	if u == nil {
		return "", ErrNilUser
	}
	return u.PasswordHash, nil
}

// HasPassword reports whether the in-memory record carries a password hash.
func (s *SQLStore) HasPassword(u *userdomain.User) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	return u.HasPassword(), nil
}

// SetSecurityStamp sets the stamp on the in-memory record only; persist with Update.
func (s *SQLStore) SetSecurityStamp(u *userdomain.User, stamp string) error {
	if u == nil {
		return ErrNilUser
	}
	u.SetSecurityStamp(stamp)
	return nil
}

// GetSecurityStamp reads the stamp from the in-memory record.
func (s *SQLStore) GetSecurityStamp(u *userdomain.User) (string, error) {
	if u == nil {
		return "", ErrNilUser
	}
	return u.SecurityStamp, nil
}

// SetEmail sets the email on the in-memory record only; persist with Update.
func (s *SQLStore) SetEmail(u *userdomain.User, email string) error {
	if u == nil {
		return ErrNilUser
	}
	if email == "" {
		return ErrEmptyArgument
	}
	u.Email = email
	return nil
}

// GetEmail reads the email from the in-memory record.
func (s *SQLStore) GetEmail(u *userdomain.User) (string, error) {
	if u == nil {
		return "", ErrNilUser
	}
	return u.Email, nil
}

// GetEmailConfirmed reads the confirmation flag from the in-memory record.
func (s *SQLStore) GetEmailConfirmed(u *userdomain.User) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	return u.IsConfirmed, nil
}

// SetEmailConfirmed sets the confirmation flag on the in-memory record only;
// persist with Update.
func (s *SQLStore) SetEmailConfirmed(u *userdomain.User, confirmed bool) error {
	if u == nil {
		return ErrNilUser
	}
	u.IsConfirmed = confirmed
	return nil
}

// FindByEmail returns the user with the given email, compared
// case-insensitively, or (nil, nil) if not found.
func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	ctx, end := s.span(ctx, "FindByEmail")
	if email == "" {
		return nil, end(ErrEmptyArgument)
	}
	u, err := s.repos.Users.GetByEmail(ctx, email)
	return u, end(err)
}

// GetLockoutEnabled reads the lockout flag from the in-memory record.
func (s *SQLStore) GetLockoutEnabled(u *userdomain.User) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	return u.LockoutEnabled, nil
}

// SetLockoutEnabled sets the lockout flag on the in-memory record only;
// persist with Update.
func (s *SQLStore) SetLockoutEnabled(u *userdomain.User, enabled bool) error {
	if u == nil {
		return ErrNilUser
	}
	u.LockoutEnabled = enabled
	return nil
}

// GetLockoutEnd reads the lockout expiry from the in-memory record.
func (s *SQLStore) GetLockoutEnd(u *userdomain.User) (time.Time, error) {
	if u == nil {
		return time.Time{}, ErrNilUser
	}
	return u.LockoutEnd, nil
}

// SetLockoutEnd sets the lockout expiry on the in-memory record only; persist
// with Update.
func (s *SQLStore) SetLockoutEnd(u *userdomain.User, end time.Time) error {
	if u == nil {
		return ErrNilUser
	}
	u.LockoutEnd = end
	return nil
}

// AddToRole assigns the user to an existing role. Unknown role names fail
// with ErrRoleNotFound; this store never creates roles on demand.
func (s *SQLStore) AddToRole(ctx context.Context, u *userdomain.User, roleName string) error {
	ctx, end := s.span(ctx, "AddToRole")
	if u == nil {
		return end(ErrNilUser)
	}
	if roleName == "" {
		return end(ErrEmptyArgument)
	}
	roleID, err := s.repos.Roles.GetIDByName(ctx, roleName)
	if err != nil {
		return end(err)
	}
	if roleID == "" {
		return end(ErrRoleNotFound)
	}
	return end(s.repos.Memberships.Add(ctx, u.ID, roleID))
}

// RemoveFromRole removes the user's assignment to roleName. Unknown role
// names fail with ErrRoleNotFound; removing an assignment the user does not
// hold is a no-op.
func (s *SQLStore) RemoveFromRole(ctx context.Context, u *userdomain.User, roleName string) error {
	ctx, end := s.span(ctx, "RemoveFromRole")
	if u == nil {
		return end(ErrNilUser)
	}
	if roleName == "" {
		return end(ErrEmptyArgument)
	}
	roleID, err := s.repos.Roles.GetIDByName(ctx, roleName)
	if err != nil {
		return end(err)
	}
	if roleID == "" {
		return end(ErrRoleNotFound)
	}
	return end(s.repos.Memberships.Remove(ctx, u.ID, roleID))
}

// GetRoles returns the names of all roles assigned to the user.
func (s *SQLStore) GetRoles(ctx context.Context, u *userdomain.User) ([]string, error) {
	ctx, end := s.span(ctx, "GetRoles")
	if u == nil {
		return nil, end(ErrNilUser)
	}
	names, err := s.repos.Memberships.ListRoleNamesByUser(ctx, u.ID)
	return names, end(err)
}

// IsInRole reports whether the user is assigned to roleName.
func (s *SQLStore) IsInRole(ctx context.Context, u *userdomain.User, roleName string) (bool, error) {
	ctx, end := s.span(ctx, "IsInRole")
	if u == nil {
		return false, end(ErrNilUser)
	}
	if roleName == "" {
		return false, end(ErrEmptyArgument)
	}
	names, err := s.repos.Memberships.ListRoleNamesByUser(ctx, u.ID)
	if err != nil {
		return false, end(err)
	}
	for _, name := range names {
		if name == roleName {
			return true, end(nil)
		}
	}
	return false, end(nil)
}

// AddClaim attaches a (type, value) claim to the user.
func (s *SQLStore) AddClaim(ctx context.Context, u *userdomain.User, claimType, claimValue string) error {
	ctx, end := s.span(ctx, "AddClaim")
	if u == nil {
		return end(ErrNilUser)
	}
	c := &claimdomain.Claim{UserID: u.ID, Type: claimType, Value: claimValue}
	if err := c.Validate(); err != nil {
		return end(err)
	}
	return end(s.repos.Claims.Add(ctx, c))
}

// GetClaims returns all claims attached to the user.
func (s *SQLStore) GetClaims(ctx context.Context, u *userdomain.User) ([]*claimdomain.Claim, error) {
	ctx, end := s.span(ctx, "GetClaims")
	if u == nil {
		return nil, end(ErrNilUser)
	}
	claims, err := s.repos.Claims.ListByUser(ctx, u.ID)
	return claims, end(err)
}

// RemoveClaim detaches the claims matching the exact (type, value) pair.
func (s *SQLStore) RemoveClaim(ctx context.Context, u *userdomain.User, claimType, claimValue string) error {
	ctx, end := s.span(ctx, "RemoveClaim")
	if u == nil {
		return end(ErrNilUser)
	}
	c := &claimdomain.Claim{UserID: u.ID, Type: claimType, Value: claimValue}
	if err := c.Validate(); err != nil {
		return end(err)
	}
	return end(s.repos.Claims.Remove(ctx, c))
}

// AddLogin links a (provider, key) external identity to the user. A fresh
// login id is assigned before the insert runs.
func (s *SQLStore) AddLogin(ctx context.Context, u *userdomain.User, provider, key string) error {
	ctx, end := s.span(ctx, "AddLogin")
	if u == nil {
		return end(ErrNilUser)
	}
	l := &extdomain.ExternalLogin{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		LoginProvider: provider,
		ProviderKey:   key,
	}
	if err := l.Validate(); err != nil {
		return end(err)
	}
	return end(s.repos.Logins.Add(ctx, l))
}

// RemoveLogin unlinks the (provider, key) external identity from the user.
func (s *SQLStore) RemoveLogin(ctx context.Context, u *userdomain.User, provider, key string) error {
	ctx, end := s.span(ctx, "RemoveLogin")
	if u == nil {
		return end(ErrNilUser)
	}
	l := &extdomain.ExternalLogin{UserID: u.ID, LoginProvider: provider, ProviderKey: key}
	if err := l.Validate(); err != nil {
		return end(err)
	}
	return end(s.repos.Logins.Remove(ctx, l))
}

// GetLogins returns all external logins linked to the user.
func (s *SQLStore) GetLogins(ctx context.Context, u *userdomain.User) ([]*extdomain.ExternalLogin, error) {
	ctx, end := s.span(ctx, "GetLogins")
	if u == nil {
		return nil, end(ErrNilUser)
	}
	logins, err := s.repos.Logins.ListByUser(ctx, u.ID)
	return logins, end(err)
}

// FindByLogin resolves a (provider, key) pair to its user, or (nil, nil) when
// the pair was never linked.
func (s *SQLStore) FindByLogin(ctx context.Context, provider, key string) (*userdomain.User, error) {
	ctx, end := s.span(ctx, "FindByLogin")
	if provider == "" || key == "" {
		return nil, end(ErrEmptyArgument)
	}
	u, err := s.repos.Logins.FindUserByProviderKey(ctx, provider, key)
	return u, end(err)
}

// SetTwoFactorEnabled is not supported by this store.
func (s *SQLStore) SetTwoFactorEnabled(u *userdomain.User, enabled bool) error {
	return ErrNotSupported
}

// GetTwoFactorEnabled is not supported by this store.
func (s *SQLStore) GetTwoFactorEnabled(u *userdomain.User) (bool, error) {
	return false, ErrNotSupported
}

// SetPhoneNumber is not supported by this store.
func (s *SQLStore) SetPhoneNumber(u *userdomain.User, phone string) error {
	return ErrNotSupported
}

// GetPhoneNumber is not supported by this store.
func (s *SQLStore) GetPhoneNumber(u *userdomain.User) (string, error) {
	return "", ErrNotSupported
}

// span starts a tracing span for op and returns a closer that records err on
// the span before passing it through.
func (s *SQLStore) span(ctx context.Context, op string) (context.Context, func(error) error) {
	ctx, sp := tracer.Start(ctx, "store."+op)
	return ctx, func(err error) error {
		if err != nil {
			sp.SetStatus(codes.Error, err.Error())
			sp.RecordError(err)
		}
		sp.End()
		return err
	}
}
