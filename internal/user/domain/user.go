package domain

import (
	"errors"
	"time"
)

// User is the core identity record. A User row owns all of its associations
// (roles, claims, external logins); those rows never outlive it.
//
// Credential accessors follow a load-once, mutate-in-memory, persist-explicitly
// contract: SetPasswordHash and SetSecurityStamp change only this in-memory
// record, and the change is lost unless the caller persists it with a store
// Update. Getters never touch storage.
type User struct {
	// ID is assigned by the store at create time and is immutable afterwards.
	ID string
	// UserName is unique case-insensitively.
	UserName string
	Nickname string
	// Email is the canonical login key, unique case-insensitively.
	Email string
	// PasswordHash is empty for users that authenticate only via external logins.
	PasswordHash string
	// SecurityStamp is an opaque token rotated whenever credentials change;
	// outstanding tokens carrying an older stamp become invalid.
	SecurityStamp     string
	IsConfirmed       bool
	ConfirmationToken string
	// CreatedAt is set once at create time and never updated.
	CreatedAt time.Time
	Company   string

	// Lockout state. A user moves Active -> Locked after too many consecutive
	// failed sign-ins and back to Active once LockoutEnd passes or an admin
	// resets it.
	LockoutEnabled    bool
	LockoutEnd        time.Time
	AccessFailedCount int
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.UserName == "" {
		return errors.New("user name is required")
	}
	return nil
}

// SetPasswordHash replaces the password hash on the in-memory record only.
// Call a store Update to persist.
func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = hash
}

// HasPassword reports whether the in-memory record carries a password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// SetSecurityStamp replaces the security stamp on the in-memory record only.
// Call a store Update to persist.
func (u *User) SetSecurityStamp(stamp string) {
	u.SecurityStamp = stamp
}

// IsLockedOut reports whether the user is locked out at the given instant.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnabled && u.LockoutEnd.After(now)
}

// RecordFailedAccess counts a failed sign-in and, once the count reaches
// maxFailures, locks the user until now+window and resets the counter.
// Returns true if this failure triggered the lockout. No-op when lockout is
// disabled for the user.
func (u *User) RecordFailedAccess(now time.Time, maxFailures int, window time.Duration) bool {
	if !u.LockoutEnabled {
		return false
	}
	u.AccessFailedCount++
	if u.AccessFailedCount >= maxFailures {
		u.LockoutEnd = now.Add(window)
		u.AccessFailedCount = 0
		return true
	}
	return false
}

// ResetAccessFailures clears the failure counter and any pending lockout,
// returning the user to the Active state.
func (u *User) ResetAccessFailures() {
	u.AccessFailedCount = 0
	u.LockoutEnd = time.Time{}
}
