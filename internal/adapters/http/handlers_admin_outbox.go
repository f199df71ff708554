package web

import (
	"net/http"
	"slices"
	"strconv"

	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/outbox"
)

// handleAdminListOutbox handles GET /api/admin/outbox?status=failed&limit=N.
// Status defaults to failed; "all" lists every entry.
func handleAdminListOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	limit := 50
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}

	status := q.Get("status")
	switch {
	case status == "":
		status = outbox.StatusFailed
	case status == "all":
		status = ""
	case !slices.Contains(outbox.ValidStatuses, status):
		writeJSONError(w, http.StatusBadRequest, "unknown outbox status")
		return
	}

	entries, err := projections.QueryListOutbox(r.Context(), projections.ListOutboxQuery{Status: status, Limit: limit},
		projections.ListOutboxDeps{OutboxStore: stores.OutboxStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAdminRetryOutbox handles POST /api/admin/outbox/{id}/retry.
// The entry is attempted immediately and its new state returned.
func handleAdminRetryOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if outboxProcessor == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "outbox processor not running")
		return
	}
	entry, err := outboxProcessor.RetryEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewOutboxEntryView(entry))
}

// handleAdminAbandonOutbox handles POST /api/admin/outbox/{id}/abandon.
func handleAdminAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if outboxProcessor == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "outbox processor not running")
		return
	}
	entry, err := outboxProcessor.AbandonEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewOutboxEntryView(entry))
}
