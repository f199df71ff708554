package operations

import (
	"errors"
	"time"
)

// Compliance record kinds.
const (
	KindPermit           = "permit"
	KindInsurance        = "insurance"
	KindSafetyInspection = "safety_inspection"
	KindWaiver           = "waiver"
	KindOther            = "other"
)

// Derived compliance states.
const (
	ComplianceValid    = "valid"
	ComplianceExpiring = "expiring"
	ComplianceExpired  = "expired"
)

// ExpiringWindow is how far ahead a record counts as expiring.
const ExpiringWindow = 30 * 24 * time.Hour

var (
	ErrInvalidKind     = errors.New("kind must be permit, insurance, safety_inspection, waiver or other")
	ErrMissingValidity = errors.New("valid_until is required")
	ErrValidityOrder   = errors.New("valid_until cannot be before valid_from")
)

// ComplianceRecord is a permit, policy or inspection a server must keep current.
type ComplianceRecord struct {
	ID         string
	ServerID   string
	Title      string
	Kind       string
	Reference  string
	ValidFrom  time.Time // optional
	ValidUntil time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks if the ComplianceRecord has valid data.
// PRE: ComplianceRecord struct is populated
// POST: Returns nil if valid, error otherwise
func (c *ComplianceRecord) Validate() error {
	if c.ServerID == "" {
		return ErrEmptyServerID
	}
	if err := validateTitle(c.Title); err != nil {
		return err
	}
	switch c.Kind {
	case KindPermit, KindInsurance, KindSafetyInspection, KindWaiver, KindOther:
	default:
		return ErrInvalidKind
	}
	if c.ValidUntil.IsZero() {
		return ErrMissingValidity
	}
	if !c.ValidFrom.IsZero() && c.ValidUntil.Before(c.ValidFrom) {
		return ErrValidityOrder
	}
	return nil
}

// State derives valid, expiring or expired. A record is valid through its
// final day.
func (c *ComplianceRecord) State(now time.Time) string {
	today := truncateDay(now)
	until := truncateDay(c.ValidUntil)
	if today.After(until) {
		return ComplianceExpired
	}
	if !until.After(today.Add(ExpiringWindow)) {
		return ComplianceExpiring
	}
	return ComplianceValid
}
