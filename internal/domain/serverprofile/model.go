package serverprofile

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyAccountID    = errors.New("server account ID is required")
	ErrEmptyOrganization = errors.New("organization name cannot be empty")
	ErrInvalidEmail      = errors.New("contact email must contain '@'")
	ErrInactive          = errors.New("server profile is not active")
	ErrAlreadyActive     = errors.New("server profile is already active")
	ErrAlreadyInactive   = errors.New("server profile is already inactive")
)

// Profile represents a reviewing organization. The account behind it is the
// reviewer for every sharing request that targets this server.
type Profile struct {
	ID               string
	AccountID        string
	OrganizationName string
	ContactEmail     string
	Description      string
	Active           bool
	CreatedAt        time.Time
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if p.AccountID == "" {
		return ErrEmptyAccountID
	}
	if strings.TrimSpace(p.OrganizationName) == "" {
		return ErrEmptyOrganization
	}
	if p.ContactEmail != "" && !strings.Contains(p.ContactEmail, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Activate marks the server as able to receive and review requests.
// PRE: Profile is inactive
// POST: Active is true
func (p *Profile) Activate() error {
	if p.Active {
		return ErrAlreadyActive
	}
	p.Active = true
	return nil
}

// Deactivate stops the server from receiving new requests.
// PRE: Profile is active
// POST: Active is false
func (p *Profile) Deactivate() error {
	if !p.Active {
		return ErrAlreadyInactive
	}
	p.Active = false
	return nil
}

// CanReview reports whether accountID may act as reviewer for this server.
// INVARIANT: Profile fields are not mutated
func (p *Profile) CanReview(accountID string) bool {
	return p.Active && accountID != "" && p.AccountID == accountID
}
