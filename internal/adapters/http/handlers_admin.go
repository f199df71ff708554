package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
)

// handleListServers handles GET /api/servers.
// Everyone sees active servers; admins also see those awaiting approval.
func handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := projections.QueryListServers(r.Context(), projections.ListServersQuery{
		IncludeInactive: middleware.IsAdmin(r.Context()),
	}, projections.ListServersDeps{ServerStore: stores.ServerStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servers)
}

// handleSetServerActive handles POST /api/admin/servers/{id}/active.
func handleSetServerActive(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	srv, err := orchestrators.ExecuteSetServerActive(r.Context(), orchestrators.SetServerActiveInput{
		Actor:    actorFrom(r, sess),
		ServerID: r.PathValue("id"),
		Active:   req.Active,
	}, orchestrators.SetServerActiveDeps{
		ServerStore: stores.ServerStore,
		AuditStore:  stores.AuditStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewServerView(srv))
}

// handlePerf handles GET /api/admin/perf?minutes=N&top=N.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if perfCollector == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "timing collector disabled")
		return
	}
	q := r.URL.Query()
	minutes, err := strconv.Atoi(q.Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	top, err := strconv.Atoi(q.Get("top"))
	if err != nil || top <= 0 || top > 50 {
		top = 10
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, top))
}

// handleHealthz handles GET /healthz with a bounded database ping.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if stores.DB != nil {
		if err := stores.DB.PingContext(ctx); err != nil {
			slog.Warn("healthz_db_unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
