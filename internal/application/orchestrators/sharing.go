package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ecocrew/internal/adapters/markdown"
	"ecocrew/internal/domain/account"
	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

// SNS event names published for the sharing workflow.
const (
	EventSharingSubmitted   = "sharing_submitted"
	EventSharingUnderReview = "sharing_under_review"
	EventSharingReviewed    = "sharing_reviewed"
	EventSharingResubmitted = "sharing_resubmitted"
)

// SharingStore defines the sharing request persistence the workflow needs.
type SharingStore interface {
	GetByID(ctx context.Context, id string) (sharing.Request, error)
	Create(ctx context.Context, r sharing.Request) error
	Update(ctx context.Context, r sharing.Request) error
	ApplyReview(ctx context.Context, r sharing.Request, activate bool, now time.Time) error
	ApplyResubmit(ctx context.Context, r sharing.Request, fileRef string, now time.Time) error
}

// ServerStoreForSharing resolves the target server of a request.
type ServerStoreForSharing interface {
	GetByID(ctx context.Context, id string) (serverprofile.Profile, error)
}

// AccountLookup resolves notification addresses.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// SharingDeps holds dependencies for every sharing workflow operation.
type SharingDeps struct {
	SharingStore     SharingStore
	CertificateStore CertificateStore
	ServerStore      ServerStoreForSharing
	AccountStore     AccountLookup
	OutboxStore      OutboxEnqueuer
	AuditStore       AuditRecorder
	GenerateID       func() string
	Now              func() time.Time
}

// ShareCertificateInput carries input for ShareCertificate.
type ShareCertificateInput struct {
	Actor           Actor // participant
	CertificateID   string
	ServerID        string
	IsPublic        bool
	ShowInCommunity bool
}

// ExecuteShareCertificate submits a certificate to a server for review.
// PRE: caller owns the certificate; the server is active
// POST: exactly one new request in pending; the server is notified
// INVARIANT: at most one open request per (certificate, server)
func ExecuteShareCertificate(ctx context.Context, input ShareCertificateInput, deps SharingDeps) (sharing.Request, error) {
	cert, err := deps.CertificateStore.GetByID(ctx, input.CertificateID)
	if err != nil {
		return sharing.Request{}, err
	}
	if cert.ParticipantID != input.Actor.AccountID {
		return sharing.Request{}, sharing.ErrNotOwner
	}
	srv, err := deps.ServerStore.GetByID(ctx, input.ServerID)
	if err != nil {
		return sharing.Request{}, err
	}
	if !srv.Active {
		return sharing.Request{}, serverprofile.ErrInactive
	}

	now := deps.Now()
	req := sharing.NewRequest(deps.GenerateID(), cert.ID, cert.ParticipantID, srv.ID, input.IsPublic, input.ShowInCommunity, now)
	if err := req.Validate(); err != nil {
		return sharing.Request{}, err
	}
	if err := deps.SharingStore.Create(ctx, req); err != nil {
		return sharing.Request{}, err
	}

	slog.Info("sharing_event", "event", "submitted", "request_id", req.ID, "certificate_id", cert.ID, "server_id", srv.ID)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, input.Actor, domainAudit.CategorySharing, domainAudit.ActionCreate).
			WithResource("sharing_request", req.ID).
			WithDescription("certificate shared for review"))

	enqueueNotification(ctx, deps.OutboxStore, deps.GenerateID, now, Notification{
		To:      serverRecipients(ctx, deps.AccountStore, srv),
		Subject: fmt.Sprintf("New certificate to review: %s", cert.Name),
		Markdown: fmt.Sprintf("A participant shared **%s** (%s) with %s.\n\nOpen the review queue to start the review.",
			markdown.Escape(cert.Name), cert.Type, markdown.Escape(srv.OrganizationName)),
		Event: EventSharingSubmitted,
		Attrs: requestAttrs(req),
	})
	return req, nil
}

// ReviewActionInput identifies a reviewer acting on a request.
type ReviewActionInput struct {
	Actor     Actor // server reviewer
	RequestID string
}

// ExecuteStartReview moves a pending request under review.
// PRE: caller is the reviewer of the request's active target server
// POST: status under_review; Version advanced
func ExecuteStartReview(ctx context.Context, input ReviewActionInput, deps SharingDeps) (sharing.Request, error) {
	req, _, err := loadForReview(ctx, input.Actor, input.RequestID, deps)
	if err != nil {
		return sharing.Request{}, err
	}

	now := deps.Now()
	if err := req.StartReview(input.Actor.AccountID, now); err != nil {
		return sharing.Request{}, err
	}
	if err := deps.SharingStore.Update(ctx, req); err != nil {
		return sharing.Request{}, err
	}
	req.Version++

	slog.Info("sharing_event", "event", "review_started", "request_id", req.ID, "reviewer_id", input.Actor.AccountID)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, input.Actor, domainAudit.CategorySharing, domainAudit.ActionReview).
			WithResource("sharing_request", req.ID).
			WithDescription("review started"))
	enqueueNotification(ctx, deps.OutboxStore, deps.GenerateID, now, Notification{
		Subject:  "Certificate review started",
		Markdown: fmt.Sprintf("Request %s is now under review.", req.ID),
		Event:    EventSharingUnderReview,
		Attrs:    requestAttrs(req),
	})
	return req, nil
}

// ReviewRequestInput carries a reviewer's decision.
type ReviewRequestInput struct {
	Actor           Actor // server reviewer
	RequestID       string
	Status          string // approved, rejected or needs_revision
	ReviewNotes     string
	RejectionReason string
	RevisionRequest string
}

// ReviewResult reports the outcome of a decision.
type ReviewResult struct {
	Request              sharing.Request
	CertificateActivated bool
}

// ExecuteReviewRequest applies a reviewer's decision to a pending or under_review request.
// PRE: caller is the reviewer of the request's active target server
// POST: exactly one of approved/rejected/needs_revision with its text field populated;
// approval activates the certificate in the same transaction
// INVARIANT: a concurrent decision on the same request yields sharing.ErrConflict
func ExecuteReviewRequest(ctx context.Context, input ReviewRequestInput, deps SharingDeps) (ReviewResult, error) {
	req, srv, err := loadForReview(ctx, input.Actor, input.RequestID, deps)
	if err != nil {
		return ReviewResult{}, err
	}
	cert, err := deps.CertificateStore.GetByID(ctx, req.CertificateID)
	if err != nil {
		return ReviewResult{}, err
	}

	now := deps.Now()
	if input.Status == sharing.StatusApproved && cert.IsExpired(now) {
		return ReviewResult{}, certification.ErrExpired
	}
	if err := req.Decide(sharing.Decision{
		ReviewerID:      input.Actor.AccountID,
		Status:          input.Status,
		ReviewNotes:     input.ReviewNotes,
		RejectionReason: input.RejectionReason,
		RevisionRequest: input.RevisionRequest,
	}, now); err != nil {
		return ReviewResult{}, err
	}

	activate := req.Status == sharing.StatusApproved && !cert.Active
	if err := deps.SharingStore.ApplyReview(ctx, req, activate, now); err != nil {
		if errors.Is(err, sharing.ErrConflict) {
			slog.Warn("sharing_event", "event", "review_conflict", "request_id", req.ID, "reviewer_id", input.Actor.AccountID)
		}
		return ReviewResult{}, err
	}
	req.Version++

	slog.Info("sharing_event", "event", "reviewed", "request_id", req.ID, "status", req.Status, "reviewer_id", input.Actor.AccountID, "activated", activate)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, input.Actor, domainAudit.CategorySharing, auditActionFor(req.Status)).
			WithResource("sharing_request", req.ID).
			WithDescription("review decision: "+req.Status).
			WithMetadata(fmt.Sprintf(`{"certificate_id":%q,"server_id":%q,"activated":%t}`, cert.ID, srv.ID, activate)))

	enqueueNotification(ctx, deps.OutboxStore, deps.GenerateID, now, Notification{
		To:       accountRecipients(ctx, deps.AccountStore, req.ParticipantID),
		Subject:  reviewSubject(cert.Name, req.Status),
		Markdown: reviewBody(cert.Name, srv.OrganizationName, req),
		Event:    EventSharingReviewed,
		Attrs:    requestAttrs(req),
	})
	return ReviewResult{Request: req, CertificateActivated: activate}, nil
}

// ResubmitRequestInput carries input for ResubmitRequest.
type ResubmitRequestInput struct {
	Actor     Actor // participant
	RequestID string
	FileRef   string // optional replacement file
}

// ExecuteResubmitRequest returns a needs_revision request to the review queue.
// PRE: caller owns the request; status is needs_revision; server still active
// POST: status pending, revision text cleared; FileRef replaced when given and
// the certificate is not active, in the same write as the status change
func ExecuteResubmitRequest(ctx context.Context, input ResubmitRequestInput, deps SharingDeps) (sharing.Request, error) {
	req, err := deps.SharingStore.GetByID(ctx, input.RequestID)
	if err != nil {
		return sharing.Request{}, err
	}

	now := deps.Now()
	if err := req.Resubmit(input.Actor.AccountID, now); err != nil {
		return sharing.Request{}, err
	}
	srv, err := deps.ServerStore.GetByID(ctx, req.ServerID)
	if err != nil {
		return sharing.Request{}, err
	}
	if !srv.Active {
		return sharing.Request{}, serverprofile.ErrInactive
	}

	cert, err := deps.CertificateStore.GetByID(ctx, req.CertificateID)
	if err != nil {
		return sharing.Request{}, err
	}
	ref := strings.TrimSpace(input.FileRef)
	if ref == cert.FileRef {
		ref = ""
	}
	if ref != "" {
		if err := cert.ReplaceFile(ref, now); err != nil {
			return sharing.Request{}, err
		}
	}
	if err := deps.SharingStore.ApplyResubmit(ctx, req, ref, now); err != nil {
		return sharing.Request{}, err
	}
	req.Version++

	slog.Info("sharing_event", "event", "resubmitted", "request_id", req.ID, "participant_id", req.ParticipantID)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, input.Actor, domainAudit.CategorySharing, domainAudit.ActionUpdate).
			WithResource("sharing_request", req.ID).
			WithDescription("resubmitted after revision"))
	enqueueNotification(ctx, deps.OutboxStore, deps.GenerateID, now, Notification{
		To:       serverRecipients(ctx, deps.AccountStore, srv),
		Subject:  fmt.Sprintf("Certificate resubmitted: %s", cert.Name),
		Markdown: fmt.Sprintf("**%s** was updated after your revision request and is back in the queue.", markdown.Escape(cert.Name)),
		Event:    EventSharingResubmitted,
		Attrs:    requestAttrs(req),
	})
	return req, nil
}

// loadForReview fetches a request and checks the actor reviews its server.
func loadForReview(ctx context.Context, actor Actor, requestID string, deps SharingDeps) (sharing.Request, serverprofile.Profile, error) {
	req, err := deps.SharingStore.GetByID(ctx, requestID)
	if err != nil {
		return sharing.Request{}, serverprofile.Profile{}, err
	}
	srv, err := deps.ServerStore.GetByID(ctx, req.ServerID)
	if err != nil {
		return sharing.Request{}, serverprofile.Profile{}, err
	}
	if srv.AccountID != actor.AccountID {
		return sharing.Request{}, serverprofile.Profile{}, ErrNotReviewer
	}
	if !srv.CanReview(actor.AccountID) {
		return sharing.Request{}, serverprofile.Profile{}, serverprofile.ErrInactive
	}
	return req, srv, nil
}

func auditActionFor(status string) domainAudit.Action {
	switch status {
	case sharing.StatusApproved:
		return domainAudit.ActionApprove
	case sharing.StatusRejected:
		return domainAudit.ActionReject
	}
	return domainAudit.ActionReview
}

func requestAttrs(r sharing.Request) map[string]string {
	return map[string]string{
		"request_id":     r.ID,
		"certificate_id": r.CertificateID,
		"server_id":      r.ServerID,
		"status":         r.Status,
	}
}

func reviewSubject(certName, status string) string {
	switch status {
	case sharing.StatusApproved:
		return fmt.Sprintf("Your certificate %q was approved", certName)
	case sharing.StatusRejected:
		return fmt.Sprintf("Your certificate %q was rejected", certName)
	}
	return fmt.Sprintf("Your certificate %q needs changes", certName)
}

func reviewBody(certName, org string, r sharing.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s reviewed **%s**.\n\n", markdown.Escape(org), markdown.Escape(certName))
	switch r.Status {
	case sharing.StatusApproved:
		b.WriteString("Your certificate is now verified.\n")
	case sharing.StatusRejected:
		fmt.Fprintf(&b, "Reason: %s\n", r.RejectionReason)
	case sharing.StatusNeedsRevision:
		fmt.Fprintf(&b, "Requested changes: %s\n\nUpdate the certificate and resubmit it.\n", r.RevisionRequest)
	}
	if r.ReviewNotes != "" {
		fmt.Fprintf(&b, "\n> %s\n", r.ReviewNotes)
	}
	return b.String()
}

// serverRecipients prefers the server's contact email over its login email.
func serverRecipients(ctx context.Context, accounts AccountLookup, srv serverprofile.Profile) []string {
	if srv.ContactEmail != "" {
		return []string{srv.ContactEmail}
	}
	return accountRecipients(ctx, accounts, srv.AccountID)
}

func accountRecipients(ctx context.Context, accounts AccountLookup, accountID string) []string {
	if accounts == nil {
		return nil
	}
	acct, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		slog.Warn("notification_recipient_missing", "account_id", accountID, "error", err)
		return nil
	}
	return []string{acct.Email}
}
