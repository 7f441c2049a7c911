// Package store presents the credential-store contract expected by a host
// authentication framework and maps it onto the table repositories. The
// facade performs no storage of its own.
//
// Credential accessors follow a load-once, mutate-in-memory,
// persist-explicitly contract: SetPasswordHash, SetSecurityStamp, SetEmail,
// and the other record setters change only the caller-held record, and the
// getters read only that record. Nothing reaches storage until the caller
// invokes Update. Forgetting the Update leaves storage stale.
package store

import (
	"context"
	"errors"
	"time"

	claimdomain "identity-store/internal/claim/domain"
	extdomain "identity-store/internal/extlogin/domain"
	userdomain "identity-store/internal/user/domain"
)

// Sentinel errors; hosts map these to their own failure surface.
var (
	// ErrNilUser is returned when a required user argument is nil.
	ErrNilUser = errors.New("user is required")
	// ErrEmptyArgument is returned when a required string argument is empty.
	ErrEmptyArgument = errors.New("required argument is empty")
	// ErrRoleNotFound is returned when a role name resolves to no role row.
	ErrRoleNotFound = errors.New("role not found")
	// ErrDuplicateUser is returned when a create or update collides with an
	// existing login name or email.
	ErrDuplicateUser = errors.New("user name or email already taken")
	// ErrNotSupported is returned by contract methods this store deliberately
	// does not implement.
	ErrNotSupported = errors.New("operation not supported by this store")
)

// UserStore is the user CRUD capability.
type UserStore interface {
	// Create persists a new user, assigning a fresh id before the insert runs.
	// Callers must not pre-assign ids.
	Create(ctx context.Context, u *userdomain.User) error
	// CreateInRole persists a new user and assigns it to roleName in one
	// transaction; a crash cannot leave the user without the role.
	CreateInRole(ctx context.Context, u *userdomain.User, roleName string) error
	Update(ctx context.Context, u *userdomain.User) error
	// Delete removes the user and, in the same transaction, every role
	// association, claim, and external login it owns.
	Delete(ctx context.Context, u *userdomain.User) error
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUserName(ctx context.Context, userName string) (*userdomain.User, error)
}

// PasswordStore is the password-hash capability. All methods operate on the
// in-memory record only.
type PasswordStore interface {
	SetPasswordHash(u *userdomain.User, hash string) error
	GetPasswordHash(u *userdomain.User) (string, error)
	HasPassword(u *userdomain.User) (bool, error)
}

// SecurityStampStore is the security-stamp capability. All methods operate on
// the in-memory record only.
type SecurityStampStore interface {
	SetSecurityStamp(u *userdomain.User, stamp string) error
	GetSecurityStamp(u *userdomain.User) (string, error)
}

// EmailStore is the email capability. FindByEmail queries storage; the rest
// operate on the in-memory record only.
type EmailStore interface {
	SetEmail(u *userdomain.User, email string) error
	GetEmail(u *userdomain.User) (string, error)
	GetEmailConfirmed(u *userdomain.User) (bool, error)
	SetEmailConfirmed(u *userdomain.User, confirmed bool) error
	FindByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// LockoutStore is the lockout capability. All methods operate on the
// in-memory record only; the lockout state machine itself lives on the user
// record and in the manager.
type LockoutStore interface {
	GetLockoutEnabled(u *userdomain.User) (bool, error)
	SetLockoutEnabled(u *userdomain.User, enabled bool) error
	GetLockoutEnd(u *userdomain.User) (time.Time, error)
	SetLockoutEnd(u *userdomain.User, end time.Time) error
}

// RoleStore is the role-membership capability.
type RoleStore interface {
	// AddToRole assigns the user to an existing role. Unknown role names fail
	// with ErrRoleNotFound; roles are never created here.
	AddToRole(ctx context.Context, u *userdomain.User, roleName string) error
	RemoveFromRole(ctx context.Context, u *userdomain.User, roleName string) error
	GetRoles(ctx context.Context, u *userdomain.User) ([]string, error)
	IsInRole(ctx context.Context, u *userdomain.User, roleName string) (bool, error)
}

// ClaimStore is the claims capability.
type ClaimStore interface {
	AddClaim(ctx context.Context, u *userdomain.User, claimType, claimValue string) error
	GetClaims(ctx context.Context, u *userdomain.User) ([]*claimdomain.Claim, error)
	RemoveClaim(ctx context.Context, u *userdomain.User, claimType, claimValue string) error
}

// LoginStore is the external-login capability.
type LoginStore interface {
	AddLogin(ctx context.Context, u *userdomain.User, provider, key string) error
	RemoveLogin(ctx context.Context, u *userdomain.User, provider, key string) error
	GetLogins(ctx context.Context, u *userdomain.User) ([]*extdomain.ExternalLogin, error)
	// FindByLogin resolves a (provider, key) pair to its user, or (nil, nil)
	// when the pair was never linked.
	FindByLogin(ctx context.Context, provider, key string) (*userdomain.User, error)
}

// TwoFactorStore is the two-factor capability. This store does not implement
// it; every method returns ErrNotSupported rather than silently succeeding.
type TwoFactorStore interface {
	SetTwoFactorEnabled(u *userdomain.User, enabled bool) error
	GetTwoFactorEnabled(u *userdomain.User) (bool, error)
}

// PhoneNumberStore is the phone-number capability. This store does not
// implement it; every method returns ErrNotSupported.
type PhoneNumberStore interface {
	SetPhoneNumber(u *userdomain.User, phone string) error
	GetPhoneNumber(u *userdomain.User) (string, error)
}

// Store is the full credential-store contract: every capability a host
// authentication framework consumes from this provider.
type Store interface {
	UserStore
	PasswordStore
	SecurityStampStore
	EmailStore
	LockoutStore
	RoleStore
	ClaimStore
	LoginStore
	TwoFactorStore
	PhoneNumberStore
}
