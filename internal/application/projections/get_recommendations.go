package projections

import (
	"context"
	"fmt"
	"time"

	"ecocrew/internal/adapters/storage/event"
	domainEvent "ecocrew/internal/domain/event"
)

// MaxRecommendedEvents caps the suggested events.
const MaxRecommendedEvents = 3

// Tips is the fixed advice list shown alongside event suggestions.
var Tips = []string{
	"Bring reusable gloves and a refillable water bottle to every cleanup.",
	"Sort recyclables on site: clean plastics and metals score more points.",
	"Log your impact on the day while the numbers are fresh.",
	"Invite a friend: events with more volunteers cover more ground.",
	"Earn a first aid or safety training certificate and share it with an organizer.",
}

// GetRecommendationsQuery carries input for the recommendations projection.
type GetRecommendationsQuery struct {
	ParticipantID string
	Now           time.Time // optional: if zero, time.Now() is used
}

// GetRecommendationsResult carries the output of the recommendations projection.
type GetRecommendationsResult struct {
	Events []EventView `json:"events"`
	Tips   []string    `json:"tips"`
}

// GetRecommendationsDeps holds dependencies for the recommendations projection.
type GetRecommendationsDeps struct {
	EventStore EventStore
}

// QueryGetRecommendations suggests upcoming events the participant has not joined.
// PRE: query.ParticipantID is non-empty
// POST: At most MaxRecommendedEvents events, soonest first, none full or joined
func QueryGetRecommendations(ctx context.Context, query GetRecommendationsQuery, deps GetRecommendationsDeps) (GetRecommendationsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	upcoming, err := deps.EventStore.List(ctx, event.ListFilter{Status: domainEvent.StatusUpcoming, StartsAfter: now})
	if err != nil {
		return GetRecommendationsResult{}, fmt.Errorf("list upcoming events: %w", err)
	}
	counts, err := deps.EventStore.RegistrationCounts(ctx)
	if err != nil {
		return GetRecommendationsResult{}, fmt.Errorf("registration counts: %w", err)
	}
	joined, err := joinedSet(ctx, deps.EventStore, query.ParticipantID)
	if err != nil {
		return GetRecommendationsResult{}, err
	}

	picks := make([]EventView, 0, MaxRecommendedEvents)
	for _, e := range upcoming {
		if len(picks) == MaxRecommendedEvents {
			break
		}
		if joined[e.ID] || !isJoinable(e, counts[e.ID], now) {
			continue
		}
		picks = append(picks, NewEventView(e, counts[e.ID], false))
	}
	return GetRecommendationsResult{Events: picks, Tips: Tips}, nil
}
