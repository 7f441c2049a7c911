// Package manager drives the account flows a host application runs on top of
// the credential store: registration, sign-in with lockout, account
// confirmation, password changes, and token issuance. It owns the policy
// knobs (failure threshold, lockout window, default role) and leaves all
// persistence to the store.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"identity-store/internal/security"
	"identity-store/internal/store"
	userdomain "identity-store/internal/user/domain"
)

var (
	// ErrInvalidCredentials is returned when the login name or password is wrong.
	// Callers get no hint which of the two it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLockedOut is returned when the account is locked out from failed attempts.
	ErrLockedOut = errors.New("account is locked out")
	// ErrNotConfirmed is returned when the account has not confirmed its email.
	ErrNotConfirmed = errors.New("account is not confirmed")
	// ErrEmailAlreadyRegistered is returned when registering an email or user
	// name that is already taken.
	ErrEmailAlreadyRegistered = errors.New("email or user name already registered")
	// ErrInvalidConfirmationToken is returned when a confirmation token does not
	// match the one issued at registration.
	ErrInvalidConfirmationToken = errors.New("invalid confirmation token")
	// ErrUserNotFound is returned when an operation names a user id that does
	// not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Manager wires the credential store, password hasher, and token provider
// into the account flows. Construct with New; the zero value is not usable.
type Manager struct {
	store         store.Store
	hasher        *security.Hasher
	tokens        *security.TokenProvider
	maxFailures   int
	lockoutWindow time.Duration
	defaultRole   string
	log           *slog.Logger
	now           func() time.Time
}

// Options carries the policy knobs for a Manager.
type Options struct {
	// MaxFailures is the failed sign-in count that triggers a lockout.
	MaxFailures int
	// LockoutWindow is how long a triggered lockout lasts.
	LockoutWindow time.Duration
	// DefaultRole, when non-empty, is assigned to every registered user. The
	// role must already exist.
	DefaultRole string
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// New returns a Manager over the given store, hasher, and token provider.
func New(s store.Store, hasher *security.Hasher, tokens *security.TokenProvider, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:         s,
		hasher:        hasher,
		tokens:        tokens,
		maxFailures:   opts.MaxFailures,
		lockoutWindow: opts.LockoutWindow,
		defaultRole:   opts.DefaultRole,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is the data collected from a registration form.
type RegisterInput struct {
	UserName string
	Email    string
	Password string
	Nickname string
	Company  string
}

// Register creates a new unconfirmed account and returns the user together
// with the raw confirmation token to deliver out of band. Only a hash of the
// token is stored. The email is lowercased before storing so it can serve as
// the login key regardless of how the user typed it.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*userdomain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		userName = email
	}
	if email == "" || in.Password == "" {
		return nil, "", ErrInvalidCredentials
	}

	existing, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailAlreadyRegistered
	}

	hash, err := m.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, "", err
	}
	stamp, err := security.NewSecurityStamp()
	if err != nil {
		return nil, "", err
	}
	confirmToken, err := security.NewConfirmationToken()
	if err != nil {
		return nil, "", err
	}

	u := &userdomain.User{
		UserName:          userName,
		Nickname:          in.Nickname,
		Email:             email,
		PasswordHash:      hash,
		SecurityStamp:     stamp,
		IsConfirmed:       false,
		ConfirmationToken: security.HashToken(confirmToken),
		Company:           in.Company,
		LockoutEnabled:    true,
	}

	if m.defaultRole != "" {
		err = m.store.CreateInRole(ctx, u, m.defaultRole)
	} else {
		err = m.store.Create(ctx, u)
	}
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return nil, "", ErrEmailAlreadyRegistered
		}
		return nil, "", err
	}

	m.log.Info("user registered", "user_id", u.ID, "email", email)
	return u, confirmToken, nil
}

// SignIn verifies credentials against the stored hash and, on success, issues
// a token. login may be the email or the login name. Failed attempts feed the
// lockout counter; the attempt that reaches the threshold locks the account
// and returns ErrLockedOut.
func (m *Manager) SignIn(ctx context.Context, login, password string) (token string, expiresAt time.Time, err error) {
	u, err := m.lookup(ctx, login)
	if err != nil {
		return "", time.Time{}, err
	}
	if u == nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := m.now()
	if u.IsLockedOut(now) {
		return "", time.Time{}, ErrLockedOut
	}
	if !u.IsConfirmed {
		return "", time.Time{}, ErrNotConfirmed
	}

	if cmpErr := m.hasher.Compare(u.PasswordHash, []byte(password)); cmpErr != nil {
		lockedNow := u.RecordFailedAccess(now, m.maxFailures, m.lockoutWindow)
		if updErr := m.store.Update(ctx, u); updErr != nil {
			return "", time.Time{}, updErr
		}
		if lockedNow {
			m.log.Warn("account locked out", "user_id", u.ID, "until", u.LockoutEnd)
			return "", time.Time{}, ErrLockedOut
		}
		return "", time.Time{}, ErrInvalidCredentials
	}

	if u.AccessFailedCount > 0 || !u.LockoutEnd.IsZero() {
		u.ResetAccessFailures()
		if updErr := m.store.Update(ctx, u); updErr != nil {
			return "", time.Time{}, updErr
		}
	}

	return m.tokens.Issue(u.ID, u.SecurityStamp)
}

// ConfirmAccount marks the account confirmed if token matches the one issued
// at registration. Confirming an already confirmed account is a no-op.
func (m *Manager) ConfirmAccount(ctx context.Context, email, token string) error {
	u, err := m.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if u == nil {
		return ErrInvalidConfirmationToken
	}
	if u.IsConfirmed {
		return nil
	}
	if !security.TokenHashEqual(token, u.ConfirmationToken) {
		return ErrInvalidConfirmationToken
	}
	u.IsConfirmed = true
	u.ConfirmationToken = ""
	if err := m.store.Update(ctx, u); err != nil {
		return err
	}
	m.log.Info("account confirmed", "user_id", u.ID)
	return nil
}

// ChangePassword replaces the password after verifying the current one. The
// security stamp is rotated so every outstanding token stops validating.
func (m *Manager) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := m.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := m.hasher.Compare(u.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := m.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	stamp, err := security.NewSecurityStamp()
	if err != nil {
		return err
	}
	if err := m.store.SetPasswordHash(u, hash); err != nil {
		return err
	}
	if err := m.store.SetSecurityStamp(u, stamp); err != nil {
		return err
	}
	if err := m.store.Update(ctx, u); err != nil {
		return err
	}
	m.log.Info("password changed", "user_id", u.ID)
	return nil
}

// AdminUnlock clears the lockout state so the user can sign in again before
// the lockout window expires.
func (m *Manager) AdminUnlock(ctx context.Context, userID string) error {
	u, err := m.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	u.ResetAccessFailures()
	if err := m.store.Update(ctx, u); err != nil {
		return err
	}
	m.log.Info("lockout cleared", "user_id", u.ID)
	return nil
}

// IssueToken issues a token for the user without a credential check. Intended
// for flows where the caller already authenticated the user (e.g. an external
// login).
func (m *Manager) IssueToken(ctx context.Context, userID string) (token string, expiresAt time.Time, err error) {
	u, err := m.store.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if u == nil {
		return "", time.Time{}, ErrUserNotFound
	}
	return m.tokens.Issue(u.ID, u.SecurityStamp)
}

// ValidateToken validates the token and loads its user. A token whose
// security stamp no longer matches the stored one is rejected, which is how
// password changes revoke outstanding tokens.
func (m *Manager) ValidateToken(ctx context.Context, token string) (*userdomain.User, error) {
	userID, stamp, err := m.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	u, err := m.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.SecurityStamp != stamp {
		return nil, security.ErrInvalidToken
	}
	return u, nil
}

// lookup resolves a login string to a user, trying email first and falling
// back to the login name. Returns (nil, nil) when neither matches.
func (m *Manager) lookup(ctx context.Context, login string) (*userdomain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil
	}
	u, err := m.store.FindByEmail(ctx, strings.ToLower(login))
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return m.store.GetByUserName(ctx, login)
}
