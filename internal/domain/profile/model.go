package profile

import (
	"errors"
	"strings"
	"time"
)

// Field limits
const (
	MaxDisplayNameLength = 80
	MaxBioLength         = 1000
)

// Domain errors
var (
	ErrEmptyAccountID = errors.New("profile account ID is required")
	ErrEmptyName      = errors.New("display name cannot be empty")
	ErrNameTooLong    = errors.New("display name cannot exceed 80 characters")
	ErrBioTooLong     = errors.New("bio cannot exceed 1000 characters")
)

// Profile is the public face of a participant: the name shown on the
// leaderboard and the community feed.
type Profile struct {
	ID          string
	AccountID   string
	DisplayName string
	Bio         string
	Location    string
	CreatedAt   time.Time
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if p.AccountID == "" {
		return ErrEmptyAccountID
	}
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxDisplayNameLength {
		return ErrNameTooLong
	}
	if len(p.Bio) > MaxBioLength {
		return ErrBioTooLong
	}
	return nil
}
