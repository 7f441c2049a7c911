package domain

import "errors"

// Role is a named role. Roles are created by an administrative path, never by
// end users.
type Role struct {
	// ID is assigned at create time and is immutable afterwards.
	ID   string
	Name string
}

// Validate validates the role for persistence.
func (r *Role) Validate() error {
	if r.Name == "" {
		return errors.New("role name is required")
	}
	return nil
}
