package projections

import (
	"context"
	"fmt"
	"time"

	"ecocrew/internal/adapters/storage/event"
	"ecocrew/internal/application/listutil"
	domainEvent "ecocrew/internal/domain/event"
)

// ListEventsQuery carries input for the event list projection.
type ListEventsQuery struct {
	Status        string
	ServerID      string
	Search        string
	UpcomingOnly  bool   // only events starting at or after Now
	ParticipantID string // when set, Joined is filled in
	Page          listutil.PageParams
	Now           time.Time // optional: if zero, time.Now() is used
}

// ListEventsResult carries the output of the event list projection.
type ListEventsResult struct {
	Events   []EventView       `json:"events"`
	PageInfo listutil.PageInfo `json:"page_info"`
}

// ListEventsDeps holds dependencies for the event list projection.
type ListEventsDeps struct {
	EventStore EventStore
}

// QueryListEvents lists events soonest first with registration counts.
// PRE: query.Status is empty or a valid event status
// POST: Returns one page of events plus page metadata
func QueryListEvents(ctx context.Context, query ListEventsQuery, deps ListEventsDeps) (ListEventsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	filter := event.ListFilter{
		Status:   query.Status,
		ServerID: query.ServerID,
		Search:   query.Search,
	}
	if query.UpcomingOnly {
		filter.StartsAfter = now
	}
	events, err := deps.EventStore.List(ctx, filter)
	if err != nil {
		return ListEventsResult{}, fmt.Errorf("list events: %w", err)
	}

	counts, err := deps.EventStore.RegistrationCounts(ctx)
	if err != nil {
		return ListEventsResult{}, fmt.Errorf("registration counts: %w", err)
	}
	joined, err := joinedSet(ctx, deps.EventStore, query.ParticipantID)
	if err != nil {
		return ListEventsResult{}, err
	}

	page := query.Page
	if page.PerPage == 0 {
		page = listutil.PageParams{Page: 1, PerPage: listutil.DefaultPerPage}
	}
	info := listutil.NewPageInfo(page.Page, page.PerPage, len(events))
	page.Page = info.Page

	views := make([]EventView, 0, page.PerPage)
	for _, e := range listutil.Paginate(events, page) {
		views = append(views, NewEventView(e, counts[e.ID], joined[e.ID]))
	}
	return ListEventsResult{Events: views, PageInfo: info}, nil
}

// GetEventQuery carries input for the event detail projection.
type GetEventQuery struct {
	EventID       string
	ParticipantID string // when set, Joined is filled in
}

// QueryGetEvent returns one event with its registration count.
// POST: Returns an error wrapping sql.ErrNoRows if the event does not exist
func QueryGetEvent(ctx context.Context, query GetEventQuery, deps ListEventsDeps) (EventView, error) {
	e, err := deps.EventStore.GetByID(ctx, query.EventID)
	if err != nil {
		return EventView{}, err
	}
	counts, err := deps.EventStore.RegistrationCounts(ctx)
	if err != nil {
		return EventView{}, fmt.Errorf("registration counts: %w", err)
	}
	joined, err := joinedSet(ctx, deps.EventStore, query.ParticipantID)
	if err != nil {
		return EventView{}, err
	}
	return NewEventView(e, counts[e.ID], joined[e.ID]), nil
}

func joinedSet(ctx context.Context, store EventStore, participantID string) (map[string]bool, error) {
	set := make(map[string]bool)
	if participantID == "" {
		return set, nil
	}
	ids, err := store.RegisteredEventIDs(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("registered events: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// isJoinable reports whether e is open for registration at now.
func isJoinable(e domainEvent.Event, registered int, now time.Time) bool {
	return e.Status == domainEvent.StatusUpcoming && e.StartsAt.After(now) && !e.IsFull(registered)
}
