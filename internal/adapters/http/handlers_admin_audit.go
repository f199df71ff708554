package web

import (
	"net/http"
	"strconv"
	"time"

	"ecocrew/internal/application/projections"
)

// handleAdminAudit handles GET /api/admin/audit.
// Query: category, action, actor_id, resource_id, from, to, limit. from and to
// take a date or an RFC 3339 timestamp; a bare to date includes that whole day.
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()

	from, err := parseBound("from", q.Get("from"), false)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseBound("to", q.Get("to"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	events, err := projections.QueryListAudit(r.Context(), projections.ListAuditQuery{
		Category:   q.Get("category"),
		Action:     q.Get("action"),
		ActorID:    q.Get("actor_id"),
		ResourceID: q.Get("resource_id"),
		From:       from,
		To:         to,
		Limit:      limit,
	}, projections.ListAuditDeps{AuditStore: stores.AuditStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func parseBound(field, v string, endOfDay bool) (time.Time, error) {
	if len(v) == len(dateLayout) {
		t, err := parseDate(field, v)
		if err == nil && endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, err
	}
	return parseTimestamp(field, v)
}
