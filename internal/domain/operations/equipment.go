package operations

import (
	"errors"
	"time"
)

// Equipment conditions.
const (
	ConditionGood        = "good"
	ConditionNeedsRepair = "needs_repair"
	ConditionRetired     = "retired"
)

var (
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	ErrInvalidCondition = errors.New("condition must be good, needs_repair or retired")
)

// Equipment is an inventory line owned by a server.
type Equipment struct {
	ID        string
	ServerID  string
	Name      string
	Category  string
	Quantity  int
	Condition string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Equipment has valid data.
func (e *Equipment) Validate() error {
	if e.ServerID == "" {
		return ErrEmptyServerID
	}
	if err := validateTitle(e.Name); err != nil {
		return err
	}
	if e.Quantity < 0 {
		return ErrNegativeQuantity
	}
	switch e.Condition {
	case ConditionGood, ConditionNeedsRepair, ConditionRetired:
		return nil
	}
	return ErrInvalidCondition
}

// NeedsRepair reports whether the item should appear in the repair count.
func (e *Equipment) NeedsRepair() bool {
	return e.Condition == ConditionNeedsRepair
}
