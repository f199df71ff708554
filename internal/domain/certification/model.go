package certification

import (
	"errors"
	"strings"
	"time"
)

// Certificate types
const (
	TypeFirstAid               = "first_aid"
	TypeSafetyTraining         = "safety_training"
	TypeWasteHandling          = "waste_handling"
	TypeHazmat                 = "hazmat"
	TypeEquipmentOperation     = "equipment_operation"
	TypeEnvironmentalEducation = "environmental_education"
	TypeLeadership             = "leadership"
	TypeOther                  = "other"
)

// ValidTypes contains all valid certificate types.
var ValidTypes = []string{
	TypeFirstAid, TypeSafetyTraining, TypeWasteHandling, TypeHazmat,
	TypeEquipmentOperation, TypeEnvironmentalEducation, TypeLeadership, TypeOther,
}

// Field limits
const (
	MaxNameLength    = 150
	MaxFileRefLength = 500
)

// Domain errors
var (
	ErrEmptyParticipantID = errors.New("certificate owner is required")
	ErrEmptyName          = errors.New("certificate name cannot be empty")
	ErrNameTooLong        = errors.New("certificate name cannot exceed 150 characters")
	ErrInvalidType        = errors.New("certificate type is not recognised")
	ErrMissingIssueDate   = errors.New("certificate issue date is required")
	ErrExpiryBeforeIssue  = errors.New("certificate expiry cannot precede its issue date")
	ErrEmptyFileRef       = errors.New("certificate file reference is required")
	ErrFileRefTooLong     = errors.New("certificate file reference cannot exceed 500 characters")
	ErrExpired            = errors.New("certificate has expired")
	ErrAlreadyActive      = errors.New("certificate is already active")
	ErrFileLocked         = errors.New("the file of an active certificate cannot be replaced")
)

// Certificate is a participant-owned credential. It starts inactive and only
// becomes active when a server approves a sharing request for it.
type Certificate struct {
	ID            string
	ParticipantID string
	Name          string
	Type          string
	Issuer        string
	IssuedOn      time.Time
	ExpiresOn     time.Time // zero = does not expire
	FileRef       string    // reference into external file storage
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Certificate has valid data.
// PRE: Certificate struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Certificate) Validate() error {
	if c.ParticipantID == "" {
		return ErrEmptyParticipantID
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !IsValidType(c.Type) {
		return ErrInvalidType
	}
	if c.IssuedOn.IsZero() {
		return ErrMissingIssueDate
	}
	if !c.ExpiresOn.IsZero() && c.ExpiresOn.Before(c.IssuedOn) {
		return ErrExpiryBeforeIssue
	}
	if strings.TrimSpace(c.FileRef) == "" {
		return ErrEmptyFileRef
	}
	if len(c.FileRef) > MaxFileRefLength {
		return ErrFileRefTooLong
	}
	return nil
}

// IsExpired returns true if the certificate has an expiry date before now's day.
// INVARIANT: Certificate fields are not mutated
func (c *Certificate) IsExpired(now time.Time) bool {
	if c.ExpiresOn.IsZero() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return c.ExpiresOn.Before(today)
}

// Activate marks the certificate as verified. Only an approved sharing
// request may call this.
// PRE: Certificate is not expired and not yet active
// POST: Active is true, UpdatedAt is now
func (c *Certificate) Activate(now time.Time) error {
	if c.Active {
		return ErrAlreadyActive
	}
	if c.IsExpired(now) {
		return ErrExpired
	}
	c.Active = true
	c.UpdatedAt = now
	return nil
}

// ReplaceFile swaps the file a reviewer will look at.
// PRE: Certificate is not active; approval vouched for the current file
// POST: FileRef is ref, UpdatedAt is now
func (c *Certificate) ReplaceFile(ref string, now time.Time) error {
	if c.Active {
		return ErrFileLocked
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ErrEmptyFileRef
	}
	if len(ref) > MaxFileRefLength {
		return ErrFileRefTooLong
	}
	c.FileRef = ref
	c.UpdatedAt = now
	return nil
}

// IsValidType reports whether t is a known certificate type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}
