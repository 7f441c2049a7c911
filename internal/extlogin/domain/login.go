package domain

import "errors"

// ExternalLogin links a local user to a third-party identity. The
// (LoginProvider, ProviderKey) pair resolves to at most one user.
type ExternalLogin struct {
	// ID is assigned at create time.
	ID            string
	UserID        string
	LoginProvider string
	ProviderKey   string
}

// Validate validates the external login for persistence.
func (l *ExternalLogin) Validate() error {
	if l.LoginProvider == "" {
		return errors.New("login provider is required")
	}
	if l.ProviderKey == "" {
		return errors.New("provider key is required")
	}
	return nil
}
