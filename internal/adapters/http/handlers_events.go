package web

import (
	"net/http"
	"slices"
	"strconv"

	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/application/listutil"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/account"
	"ecocrew/internal/domain/event"
)

// viewerParticipantID returns the caller's account ID when they are a
// participant, so event views can report whether they joined.
func viewerParticipantID(r *http.Request) string {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok && sess.Role == account.RoleParticipant {
		return sess.AccountID
	}
	return ""
}

// handleListEvents handles GET /api/events.
// Query: status, server_id, q, upcoming=true, page, per_page.
func handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fp := listutil.ParseFilterParams(q, "status", "server_id", "upcoming")
	status := fp.Filters["status"]
	if status != "" && !slices.Contains(event.ValidStatuses, status) {
		writeError(w, event.ErrInvalidStatus)
		return
	}

	result, err := projections.QueryListEvents(r.Context(), projections.ListEventsQuery{
		Status:        status,
		ServerID:      fp.Filters["server_id"],
		Search:        fp.Search,
		UpcomingOnly:  fp.Filters["upcoming"] == "true",
		ParticipantID: viewerParticipantID(r),
		Page:          listutil.ParsePageParams(q),
		Now:           timeNow(),
	}, projections.ListEventsDeps{EventStore: stores.EventStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCreateEvent handles POST /api/events (server role).
func handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
		StartsAt    string `json:"starts_at"`
		EndsAt      string `json:"ends_at"`
		Capacity    int    `json:"capacity"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	startsAt, err := parseTimestamp("starts_at", req.StartsAt)
	if err != nil {
		writeError(w, err)
		return
	}
	endsAt, err := parseTimestamp("ends_at", req.EndsAt)
	if err != nil {
		writeError(w, err)
		return
	}

	ev, err := orchestrators.ExecuteCreateEvent(r.Context(), orchestrators.CreateEventInput{
		Actor:       actorFrom(r, sess),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Capacity:    req.Capacity,
	}, orchestrators.CreateEventDeps{
		ServerStore: stores.ServerStore,
		EventStore:  stores.EventStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.NewEventView(ev, 0, false))
}

// handleGetEvent handles GET /api/events/{id}.
func handleGetEvent(w http.ResponseWriter, r *http.Request) {
	view, err := projections.QueryGetEvent(r.Context(), projections.GetEventQuery{
		EventID:       r.PathValue("id"),
		ParticipantID: viewerParticipantID(r),
	}, projections.ListEventsDeps{EventStore: stores.EventStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleUpdateEventStatus handles POST /api/events/{id}/status.
// The organizing server or an admin may move the event along its lifecycle.
func handleUpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer, account.RoleAdmin)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	ev, err := orchestrators.ExecuteUpdateEventStatus(r.Context(), orchestrators.UpdateEventStatusInput{
		Actor:   actorFrom(r, sess),
		EventID: r.PathValue("id"),
		Status:  req.Status,
	}, orchestrators.UpdateEventStatusDeps{
		ServerStore: stores.ServerStore,
		EventStore:  stores.EventStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	registered, err := stores.EventStore.CountRegistrations(r.Context(), ev.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewEventView(ev, registered, false))
}

// handleJoinEvent handles POST /api/events/{id}/join (participant role).
func handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	reg, err := orchestrators.ExecuteJoinEvent(r.Context(), orchestrators.JoinEventInput{
		ParticipantID: sess.AccountID,
		EventID:       r.PathValue("id"),
	}, orchestrators.JoinEventDeps{
		EventStore: stores.EventStore,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"event_id":  reg.EventID,
		"joined_at": reg.JoinedAt,
	})
}

// handleLeaveEvent handles POST /api/events/{id}/leave (participant role).
func handleLeaveEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	err := orchestrators.ExecuteLeaveEvent(r.Context(), orchestrators.LeaveEventInput{
		ParticipantID: sess.AccountID,
		EventID:       r.PathValue("id"),
	}, orchestrators.LeaveEventDeps{EventStore: stores.EventStore})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLogImpact handles POST /api/impact (participant role).
func handleLogImpact(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	var req struct {
		EventID        string  `json:"event_id"`
		TrashKg        float64 `json:"trash_kg"`
		RecyclablesKg  float64 `json:"recyclables_kg"`
		VolunteerHours float64 `json:"volunteer_hours"`
		TreesPlanted   int     `json:"trees_planted"`
		Notes          string  `json:"notes"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	l, err := orchestrators.ExecuteLogImpact(r.Context(), orchestrators.LogImpactInput{
		ParticipantID:  sess.AccountID,
		EventID:        req.EventID,
		TrashKg:        req.TrashKg,
		RecyclablesKg:  req.RecyclablesKg,
		VolunteerHours: req.VolunteerHours,
		TreesPlanted:   req.TreesPlanted,
		Notes:          req.Notes,
	}, orchestrators.LogImpactDeps{
		EventStore:  stores.EventStore,
		ImpactStore: stores.ImpactStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.NewImpactLogView(l))
}

// handleMyImpact handles GET /api/impact (participant role).
func handleMyImpact(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	result, err := projections.QueryGetMyImpact(r.Context(), projections.GetMyImpactQuery{ParticipantID: sess.AccountID},
		projections.GetMyImpactDeps{ImpactStore: stores.ImpactStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleLeaderboard handles GET /api/leaderboard?period=all|month|week&limit=N.
func handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	result, err := projections.QueryGetLeaderboard(r.Context(), projections.GetLeaderboardQuery{
		Period: q.Get("period"),
		Limit:  limit,
		Now:    timeNow(),
	}, projections.GetLeaderboardDeps{
		ImpactStore:  stores.ImpactStore,
		ProfileStore: stores.ProfileStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRecommendations handles GET /api/recommendations (participant role).
func handleRecommendations(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	result, err := projections.QueryGetRecommendations(r.Context(), projections.GetRecommendationsQuery{
		ParticipantID: sess.AccountID,
		Now:           timeNow(),
	}, projections.GetRecommendationsDeps{EventStore: stores.EventStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
