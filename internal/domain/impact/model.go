package impact

import (
	"errors"
	"math"
	"time"
)

// Point weights per unit of each metric.
const (
	PointsPerTrashKg       = 2.0
	PointsPerRecyclablesKg = 3.0
	PointsPerHour          = 10.0
	PointsPerTree          = 5.0
)

// MaxNotesLength bounds free-text notes.
const MaxNotesLength = 500

// Upper bounds for a single log.
const (
	MaxTrashKg        = 10000.0
	MaxRecyclablesKg  = 10000.0
	MaxVolunteerHours = 24.0
	MaxTreesPlanted   = 10000
)

// Domain errors
var (
	ErrEmptyParticipantID = errors.New("participant ID is required")
	ErrEmptyEventID       = errors.New("event ID is required")
	ErrNegativeMetric     = errors.New("impact metrics cannot be negative")
	ErrNoImpact           = errors.New("at least one impact metric must be greater than zero")
	ErrMetricTooLarge     = errors.New("impact metric exceeds the per-log maximum")
	ErrNotesTooLong       = errors.New("notes cannot exceed 500 characters")
)

// Log is one participant's reported impact for one event.
type Log struct {
	ID             string
	ParticipantID  string
	EventID        string
	TrashKg        float64
	RecyclablesKg  float64
	VolunteerHours float64
	TreesPlanted   int
	Notes          string
	LoggedAt       time.Time
}

// Validate checks if the Log has valid data.
// PRE: Log struct is populated
// POST: Returns nil if valid, error otherwise
func (l *Log) Validate() error {
	if l.ParticipantID == "" {
		return ErrEmptyParticipantID
	}
	if l.EventID == "" {
		return ErrEmptyEventID
	}
	if l.TrashKg < 0 || l.RecyclablesKg < 0 || l.VolunteerHours < 0 || l.TreesPlanted < 0 {
		return ErrNegativeMetric
	}
	// negated so NaN fails too
	if !(l.TrashKg <= MaxTrashKg && l.RecyclablesKg <= MaxRecyclablesKg && l.VolunteerHours <= MaxVolunteerHours) ||
		l.TreesPlanted > MaxTreesPlanted {
		return ErrMetricTooLarge
	}
	if l.TrashKg == 0 && l.RecyclablesKg == 0 && l.VolunteerHours == 0 && l.TreesPlanted == 0 {
		return ErrNoImpact
	}
	if len(l.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// Points returns the leaderboard score for this log, rounded to the nearest integer.
// PRE: Validate passed, so the score fits an int
// INVARIANT: Log fields are not mutated
func (l *Log) Points() int {
	raw := l.TrashKg*PointsPerTrashKg +
		l.RecyclablesKg*PointsPerRecyclablesKg +
		l.VolunteerHours*PointsPerHour +
		float64(l.TreesPlanted)*PointsPerTree
	return int(math.Round(raw))
}

// Totals aggregates a set of logs.
type Totals struct {
	TrashKg        float64
	RecyclablesKg  float64
	VolunteerHours float64
	TreesPlanted   int
	Points         int
	Events         int // distinct events
}

// Sum aggregates logs into Totals.
// POST: Events counts distinct EventIDs
func Sum(logs []Log) Totals {
	var t Totals
	seen := make(map[string]bool)
	for i := range logs {
		l := &logs[i]
		t.TrashKg += l.TrashKg
		t.RecyclablesKg += l.RecyclablesKg
		t.VolunteerHours += l.VolunteerHours
		t.TreesPlanted += l.TreesPlanted
		t.Points += l.Points()
		if !seen[l.EventID] {
			seen[l.EventID] = true
			t.Events++
		}
	}
	return t
}
