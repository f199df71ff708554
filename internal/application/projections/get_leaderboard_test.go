package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecocrew/internal/domain/impact"
)

func logAt(id, participant, eventID string, trashKg float64, at time.Time) impact.Log {
	return impact.Log{ID: id, ParticipantID: participant, EventID: eventID, TrashKg: trashKg, LoggedAt: at}
}

// TestQueryGetLeaderboard_CompetitionRanking verifies tied participants share a
// rank, the next rank skips, and ties are ordered by display name.
func TestQueryGetLeaderboard_CompetitionRanking(t *testing.T) {
	at := fixedNow.Add(-time.Hour)
	deps := GetLeaderboardDeps{
		ImpactStore: &mockImpactStore{logs: []impact.Log{
			logAt("l1", "p-ana", "e1", 50, at), // 100
			logAt("l2", "p-zoe", "e1", 40, at), // 80
			logAt("l3", "p-ben", "e1", 25, at), // 50
			logAt("l4", "p-ben", "e2", 15, at), // 30 -> 80
			logAt("l5", "p-cat", "e2", 10, at), // 20
		}},
		ProfileStore: &mockNameStore{names: map[string]string{
			"p-ana": "Ana", "p-zoe": "Zoe", "p-ben": "Ben", "p-cat": "Cat",
		}},
	}

	result, err := QueryGetLeaderboard(context.Background(), GetLeaderboardQuery{Now: fixedNow}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		rank   int
		name   string
		points int
	}{
		{1, "Ana", 100},
		{2, "Ben", 80},
		{2, "Zoe", 80},
		{4, "Cat", 20},
	}
	if len(result.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(result.Entries))
	}
	for i, w := range want {
		got := result.Entries[i]
		if got.Rank != w.rank || got.DisplayName != w.name || got.Points != w.points {
			t.Errorf("entry %d: got rank=%d name=%s points=%d, want %+v", i, got.Rank, got.DisplayName, got.Points, w)
		}
	}
	if result.Entries[1].EventsJoined != 2 {
		t.Errorf("expected Ben to have 2 events, got %d", result.Entries[1].EventsJoined)
	}
	if result.Entries[1].TotalKg != 40 {
		t.Errorf("expected Ben total kg 40, got %v", result.Entries[1].TotalKg)
	}
	if result.Period != PeriodAll || result.Since != nil {
		t.Errorf("expected all-time period with no start, got %s %v", result.Period, result.Since)
	}
}

// TestQueryGetLeaderboard_WeekExcludesOlderLogs verifies the week window starts on Monday.
func TestQueryGetLeaderboard_WeekExcludesOlderLogs(t *testing.T) {
	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	deps := GetLeaderboardDeps{
		ImpactStore: &mockImpactStore{logs: []impact.Log{
			logAt("l1", "p1", "e1", 10, monday.Add(time.Hour)),
			logAt("l2", "p2", "e1", 99, monday.Add(-time.Minute)), // Sunday
		}},
		ProfileStore: &mockNameStore{},
	}

	result, err := QueryGetLeaderboard(context.Background(), GetLeaderboardQuery{Period: PeriodWeek, Now: fixedNow}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].ParticipantID != "p1" {
		t.Fatalf("expected only p1, got %+v", result.Entries)
	}
	if result.Entries[0].DisplayName != anonymousName {
		t.Errorf("expected anonymous fallback name, got %q", result.Entries[0].DisplayName)
	}
	if result.Since == nil || !result.Since.Equal(monday) {
		t.Errorf("expected since %v, got %v", monday, result.Since)
	}
}

// TestQueryGetLeaderboard_Limit verifies the result is truncated after ranking.
func TestQueryGetLeaderboard_Limit(t *testing.T) {
	at := fixedNow.Add(-time.Hour)
	deps := GetLeaderboardDeps{
		ImpactStore: &mockImpactStore{logs: []impact.Log{
			logAt("l1", "p1", "e1", 3, at),
			logAt("l2", "p2", "e1", 2, at),
			logAt("l3", "p3", "e1", 1, at),
		}},
		ProfileStore: &mockNameStore{},
	}
	result, err := QueryGetLeaderboard(context.Background(), GetLeaderboardQuery{Limit: 2, Now: fixedNow}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 || result.Entries[0].ParticipantID != "p1" {
		t.Errorf("expected top two, got %+v", result.Entries)
	}
}

// TestQueryGetLeaderboard_InvalidPeriod verifies unknown periods are rejected.
func TestQueryGetLeaderboard_InvalidPeriod(t *testing.T) {
	deps := GetLeaderboardDeps{ImpactStore: &mockImpactStore{}, ProfileStore: &mockNameStore{}}
	_, err := QueryGetLeaderboard(context.Background(), GetLeaderboardQuery{Period: "year", Now: fixedNow}, deps)
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		name   string
		period string
		now    time.Time
		want   time.Time
	}{
		{"all", PeriodAll, fixedNow, time.Time{}},
		{"month", PeriodMonth, fixedNow, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"week midweek", PeriodWeek, fixedNow, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"week on sunday", PeriodWeek, time.Date(2026, 3, 22, 23, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"week on monday", PeriodWeek, time.Date(2026, 3, 23, 0, 30, 0, 0, time.UTC), time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)},
		{"non-UTC input", PeriodMonth, time.Date(2026, 4, 1, 1, 0, 0, 0, time.FixedZone("NZ", 13*3600)), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodStart(tt.period, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
