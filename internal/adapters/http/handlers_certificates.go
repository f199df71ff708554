package web

import (
	"net/http"
	"strconv"

	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/application/listutil"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/account"
)

func sharingDeps() orchestrators.SharingDeps {
	return orchestrators.SharingDeps{
		SharingStore:     stores.SharingStore,
		CertificateStore: stores.CertificateStore,
		ServerStore:      stores.ServerStore,
		AccountStore:     stores.AccountStore,
		OutboxStore:      stores.OutboxStore,
		AuditStore:       stores.AuditStore,
		GenerateID:       generateID,
		Now:              timeNow,
	}
}

func certificatesDeps() projections.GetCertificatesDeps {
	return projections.GetCertificatesDeps{
		CertificateStore: stores.CertificateStore,
		SharingStore:     stores.SharingStore,
		ServerStore:      stores.ServerStore,
	}
}

func reviewsDeps() projections.ListReviewsDeps {
	return projections.ListReviewsDeps{
		SharingStore:     stores.SharingStore,
		CertificateStore: stores.CertificateStore,
		ProfileStore:     stores.ProfileStore,
		ServerStore:      stores.ServerStore,
	}
}

// handleListCertificates handles GET /api/certificates (participant role).
// Each certificate carries its derived sharing status and request history.
func handleListCertificates(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	certs, err := projections.QueryGetMyCertificates(r.Context(), projections.GetMyCertificatesQuery{
		ParticipantID: sess.AccountID,
		Now:           timeNow(),
	}, certificatesDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, certs)
}

// handleUploadCertificate handles POST /api/certificates (participant role).
func handleUploadCertificate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	var req struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		Issuer    string `json:"issuer"`
		IssuedOn  string `json:"issued_on"`
		ExpiresOn string `json:"expires_on"`
		FileRef   string `json:"file_ref"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	issuedOn, err := parseDate("issued_on", req.IssuedOn)
	if err != nil {
		writeError(w, err)
		return
	}
	expiresOn, err := parseDate("expires_on", req.ExpiresOn)
	if err != nil {
		writeError(w, err)
		return
	}

	cert, err := orchestrators.ExecuteUploadCertificate(r.Context(), orchestrators.UploadCertificateInput{
		Actor:     actorFrom(r, sess),
		Name:      req.Name,
		Type:      req.Type,
		Issuer:    req.Issuer,
		IssuedOn:  issuedOn,
		ExpiresOn: expiresOn,
		FileRef:   req.FileRef,
	}, orchestrators.UploadCertificateDeps{
		CertificateStore: stores.CertificateStore,
		AuditStore:       stores.AuditStore,
		GenerateID:       generateID,
		Now:              timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.NewCertificateView(cert, "", timeNow()))
}

// handleGetCertificate handles GET /api/certificates/{id}.
// Anonymous callers see only certificates with an approved public share.
func handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	query := projections.GetCertificateQuery{
		CertificateID: r.PathValue("id"),
		Now:           timeNow(),
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		query.ViewerAccountID = sess.AccountID
		query.ViewerIsAdmin = sess.Role == account.RoleAdmin
	}
	view, err := projections.QueryGetCertificate(r.Context(), query, certificatesDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleShareCertificate handles POST /api/sharing (participant role).
func handleShareCertificate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	var req struct {
		CertificateID   string `json:"certificate_id"`
		ServerID        string `json:"server_id"`
		IsPublic        bool   `json:"is_public"`
		ShowInCommunity bool   `json:"show_in_community"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	shared, err := orchestrators.ExecuteShareCertificate(r.Context(), orchestrators.ShareCertificateInput{
		Actor:           actorFrom(r, sess),
		CertificateID:   req.CertificateID,
		ServerID:        req.ServerID,
		IsPublic:        req.IsPublic,
		ShowInCommunity: req.ShowInCommunity,
	}, sharingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.NewSharingRequestView(shared))
}

// handleResubmitRequest handles POST /api/sharing/{id}/resubmit (participant role).
func handleResubmitRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleParticipant)
	if !ok {
		return
	}
	var req struct {
		FileRef string `json:"file_ref"`
	}
	if r.ContentLength != 0 && !decodeOrReject(w, r, &req) {
		return
	}

	resubmitted, err := orchestrators.ExecuteResubmitRequest(r.Context(), orchestrators.ResubmitRequestInput{
		Actor:     actorFrom(r, sess),
		RequestID: r.PathValue("id"),
		FileRef:   req.FileRef,
	}, sharingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewSharingRequestView(resubmitted))
}

// handleCommunity handles GET /api/community?limit=N. Public.
func handleCommunity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := projections.QueryListCommunity(r.Context(), projections.ListCommunityQuery{Limit: limit}, reviewsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleListReviews handles GET /api/reviews (server role).
// Query: status, type, q, page, per_page.
func handleListReviews(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	srv, err := callerServer(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	fp := listutil.ParseFilterParams(q, "status", "type")

	result, err := projections.QueryListPendingReviews(r.Context(), projections.ListPendingReviewsQuery{
		ServerID: srv.ID,
		Status:   fp.Filters["status"],
		Type:     fp.Filters["type"],
		Search:   fp.Search,
		Page:     listutil.ParsePageParams(q),
		Now:      timeNow(),
	}, reviewsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStartReview handles POST /api/reviews/{id}/start (server role).
func handleStartReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	started, err := orchestrators.ExecuteStartReview(r.Context(), orchestrators.ReviewActionInput{
		Actor:     actorFrom(r, sess),
		RequestID: r.PathValue("id"),
	}, sharingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewSharingRequestView(started))
}

type reviewDecisionResponse struct {
	Request              projections.SharingRequestView `json:"request"`
	CertificateActivated bool                           `json:"certificate_activated"`
}

// handleReviewDecision handles POST /api/reviews/{id}/decision (server role).
// A concurrent decision on the same request answers 409.
func handleReviewDecision(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		Status          string `json:"status"`
		ReviewNotes     string `json:"review_notes"`
		RejectionReason string `json:"rejection_reason"`
		RevisionRequest string `json:"revision_request"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	res, err := orchestrators.ExecuteReviewRequest(r.Context(), orchestrators.ReviewRequestInput{
		Actor:           actorFrom(r, sess),
		RequestID:       r.PathValue("id"),
		Status:          req.Status,
		ReviewNotes:     req.ReviewNotes,
		RejectionReason: req.RejectionReason,
		RevisionRequest: req.RevisionRequest,
	}, sharingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewDecisionResponse{
		Request:              projections.NewSharingRequestView(res.Request),
		CertificateActivated: res.CertificateActivated,
	})
}
