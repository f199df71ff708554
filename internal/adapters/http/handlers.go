package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/domain/account"
	"ecocrew/internal/domain/serverprofile"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeOrReject decodes the body into v, answering 400 on failure.
func decodeOrReject(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(w, r, v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_response_failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a domain or application error to its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		internalError(w, err)
	case http.StatusNotFound:
		writeJSONError(w, status, "not found")
	default:
		writeJSONError(w, status, err.Error())
	}
}

// requireSession returns the caller's session, answering 401 when there is none.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return middleware.Session{}, false
	}
	return sess, true
}

// requireRole returns the caller's session when it holds one of roles.
// Missing sessions get 401, other roles 403.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return sess, false
	}
	for _, role := range roles {
		if sess.Role == role {
			return sess, true
		}
	}
	writeJSONError(w, http.StatusForbidden, "forbidden")
	return middleware.Session{}, false
}

// requireAdmin is requireRole for the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	return requireRole(w, r, account.RoleAdmin)
}

// actorFrom builds the orchestrator actor for an authenticated request.
func actorFrom(r *http.Request, sess middleware.Session) orchestrators.Actor {
	return orchestrators.Actor{
		AccountID: sess.AccountID,
		Email:     sess.Email,
		Role:      sess.Role,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// callerServer resolves the server profile of a server-role session.
func callerServer(r *http.Request, sess middleware.Session) (serverprofile.Profile, error) {
	srv, err := stores.ServerStore.GetByAccountID(r.Context(), sess.AccountID)
	if err != nil {
		if isNotFound(err) {
			return serverprofile.Profile{}, orchestrators.ErrNoServerProfile
		}
		return serverprofile.Profile{}, err
	}
	return srv, nil
}

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// parseDate parses an optional YYYY-MM-DD field; empty yields the zero time.
func parseDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, badRequest{fmt.Sprintf("%s must be a YYYY-MM-DD date", field)}
	}
	return t, nil
}

// parseTimestamp parses an optional RFC 3339 field; empty yields the zero time.
func parseTimestamp(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, badRequest{fmt.Sprintf("%s must be an RFC 3339 timestamp", field)}
	}
	return t.UTC(), nil
}

// badRequest carries a client-facing message for malformed input.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func isBadRequest(err error) bool {
	var br badRequest
	return errors.As(err, &br)
}
