package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Timestamps are stored as fixed-width UTC text so that string comparison in
// SQL orders them chronologically.
const (
	TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	DateLayout = "2006-01-02"
)

// FormatTime renders t for a NOT NULL timestamp column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NullTime renders t for a nullable timestamp column; the zero time is NULL.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// NullDate renders t for a nullable date column; the zero time is NULL.
func NullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatDate(t)
}

// ParseTime accepts every layout this package writes plus the legacy forms
// SQLite's own date functions produce.
func ParseTime(s string) (time.Time, error) {
	for _, f := range []string{TimeLayout, time.RFC3339Nano, DateLayout, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// ParseNullTime returns the zero time for NULL or unparseable values.
func ParseNullTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, _ := ParseTime(ns.String)
	return t
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
