package operations

import (
	"errors"
	"time"
)

// Finance entry kinds.
const (
	FinanceIncome  = "income"
	FinanceExpense = "expense"
)

var (
	ErrInvalidFinanceKind = errors.New("kind must be income or expense")
	ErrNonPositiveAmount  = errors.New("amount must be greater than zero")
	ErrMissingOccurredOn  = errors.New("occurred_on is required")
)

// FinanceEntry is a single income or expense line. Amounts are in cents.
type FinanceEntry struct {
	ID          string
	ServerID    string
	EventID     string // optional
	Kind        string
	Category    string
	AmountCents int64
	Description string
	OccurredOn  time.Time
	CreatedAt   time.Time
}

// Validate checks if the FinanceEntry has valid data.
func (f *FinanceEntry) Validate() error {
	if f.ServerID == "" {
		return ErrEmptyServerID
	}
	if f.Kind != FinanceIncome && f.Kind != FinanceExpense {
		return ErrInvalidFinanceKind
	}
	if f.AmountCents <= 0 {
		return ErrNonPositiveAmount
	}
	if f.OccurredOn.IsZero() {
		return ErrMissingOccurredOn
	}
	return nil
}

// Balance sums a ledger.
type Balance struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

// Summarize totals income and expenses across entries.
// POST: BalanceCents == IncomeCents - ExpenseCents
func Summarize(entries []FinanceEntry) Balance {
	var b Balance
	for _, e := range entries {
		switch e.Kind {
		case FinanceIncome:
			b.IncomeCents += e.AmountCents
		case FinanceExpense:
			b.ExpenseCents += e.AmountCents
		}
	}
	b.BalanceCents = b.IncomeCents - b.ExpenseCents
	return b
}
