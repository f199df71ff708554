package projections

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ecocrew/internal/domain/impact"
)

// Leaderboard periods.
const (
	PeriodAll   = "all"
	PeriodMonth = "month"
	PeriodWeek  = "week"
)

// LeaderboardPeriods lists the accepted periods.
var LeaderboardPeriods = []string{PeriodAll, PeriodMonth, PeriodWeek}

// Leaderboard size limits.
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// ErrInvalidPeriod is returned for an unknown leaderboard period.
var ErrInvalidPeriod = errors.New("period must be one of: all, month, week")

// anonymousName is shown for participants without a profile.
const anonymousName = "Anonymous volunteer"

// GetLeaderboardQuery carries input for the leaderboard projection.
type GetLeaderboardQuery struct {
	Period string    // all, month or week; empty means all
	Limit  int       // 0 means DefaultLeaderboardLimit
	Now    time.Time // optional: if zero, time.Now() is used
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	ParticipantID  string  `json:"participant_id"`
	DisplayName    string  `json:"display_name"`
	Points         int     `json:"points"`
	EventsJoined   int     `json:"events_joined"`
	TotalKg        float64 `json:"total_kg"`
	VolunteerHours float64 `json:"volunteer_hours"`
	TreesPlanted   int     `json:"trees_planted"`
}

// GetLeaderboardResult carries the output of the leaderboard projection.
type GetLeaderboardResult struct {
	Period  string             `json:"period"`
	Since   *time.Time         `json:"since"`
	Entries []LeaderboardEntry `json:"entries"`
}

// GetLeaderboardDeps holds dependencies for the leaderboard projection.
type GetLeaderboardDeps struct {
	ImpactStore  ImpactStore
	ProfileStore DisplayNameStore
}

// QueryGetLeaderboard ranks participants by impact points within a period.
// PRE: query.Period is empty or one of LeaderboardPeriods
// POST: Entries sorted by points desc, display name asc; equal points share a
// rank and the next rank skips (1, 2, 2, 4)
func QueryGetLeaderboard(ctx context.Context, query GetLeaderboardQuery, deps GetLeaderboardDeps) (GetLeaderboardResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	period := query.Period
	if period == "" {
		period = PeriodAll
	}
	since, err := PeriodStart(period, now)
	if err != nil {
		return GetLeaderboardResult{}, err
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	logs, err := deps.ImpactStore.ListSince(ctx, since)
	if err != nil {
		return GetLeaderboardResult{}, fmt.Errorf("list impact logs: %w", err)
	}

	byParticipant := make(map[string][]impact.Log)
	for _, l := range logs {
		byParticipant[l.ParticipantID] = append(byParticipant[l.ParticipantID], l)
	}
	ids := make([]string, 0, len(byParticipant))
	for id := range byParticipant {
		ids = append(ids, id)
	}
	names, err := deps.ProfileStore.DisplayNames(ctx, ids)
	if err != nil {
		return GetLeaderboardResult{}, fmt.Errorf("load display names: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		totals := impact.Sum(byParticipant[id])
		name := names[id]
		if name == "" {
			name = anonymousName
		}
		entries = append(entries, LeaderboardEntry{
			ParticipantID:  id,
			DisplayName:    name,
			Points:         totals.Points,
			EventsJoined:   totals.Events,
			TotalKg:        totals.TrashKg + totals.RecyclablesKg,
			VolunteerHours: totals.VolunteerHours,
			TreesPlanted:   totals.TreesPlanted,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if na, nb := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName); na != nb {
			return na < nb
		}
		return a.ParticipantID < b.ParticipantID
	})
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	return GetLeaderboardResult{Period: period, Since: formatTimePtr(since), Entries: entries}, nil
}

// PeriodStart returns the UTC instant a leaderboard period begins. Months
// start on the 1st and weeks on Monday; "all" returns the zero time.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	now = now.UTC()
	switch period {
	case PeriodAll:
		return time.Time{}, nil
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7 // days since Monday
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -offset), nil
	default:
		return time.Time{}, ErrInvalidPeriod
	}
}
