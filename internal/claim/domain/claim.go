package domain

import "errors"

// Claim is a (type, value) assertion attached to a user. A user may carry any
// number of claims; claims are not globally unique.
type Claim struct {
	UserID string
	Type   string
	Value  string
}

// Validate validates the claim for persistence.
func (c *Claim) Validate() error {
	if c.Type == "" {
		return errors.New("claim type is required")
	}
	return nil
}
