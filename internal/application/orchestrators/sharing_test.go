package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ecocrew/internal/adapters/sns"
	"ecocrew/internal/domain/account"
	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/certification"
	domainOutbox "ecocrew/internal/domain/outbox"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

var (
	participant   = Actor{AccountID: "p1", Email: "aroha@example.org", Role: account.RoleParticipant}
	reviewer      = Actor{AccountID: "acct-rev", Email: "lead@coastcare.org", Role: account.RoleServer}
	otherReviewer = Actor{AccountID: "acct-other", Email: "lead@riverwatch.org", Role: account.RoleServer}
)

type sharingFixture struct {
	certs    *memCertStore
	requests *memSharingStore
	servers  *memServerStore
	outbox   *memOutboxStore
	audit    *memAuditStore
	deps     SharingDeps
}

func newSharingFixture() *sharingFixture {
	certs := newMemCertStore(
		certification.Certificate{
			ID: "c1", ParticipantID: "p1", Name: "First Aid Level 2", Type: certification.TypeFirstAid,
			IssuedOn: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), ExpiresOn: time.Date(2028, 5, 1, 0, 0, 0, 0, time.UTC),
			FileRef: "files/c1.pdf", CreatedAt: testNow, UpdatedAt: testNow,
		},
		certification.Certificate{
			ID: "c-expired", ParticipantID: "p1", Name: "Old Hazmat", Type: certification.TypeHazmat,
			IssuedOn: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), ExpiresOn: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			FileRef: "files/old.pdf", CreatedAt: testNow, UpdatedAt: testNow,
		},
		certification.Certificate{
			ID: "c-other", ParticipantID: "p2", Name: "Someone else's", Type: certification.TypeOther,
			IssuedOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), FileRef: "files/x.pdf",
		},
	)
	servers := newMemServerStore(
		serverprofile.Profile{ID: "srv-1", AccountID: "acct-rev", OrganizationName: "Coast Care", ContactEmail: "crew@coastcare.org", Active: true},
		serverprofile.Profile{ID: "srv-2", AccountID: "acct-other", OrganizationName: "River Watch", Active: true},
		serverprofile.Profile{ID: "srv-idle", AccountID: "acct-idle", OrganizationName: "Not Yet", Active: false},
	)
	accounts := newMemAccountStore(
		account.Account{ID: "p1", Email: "aroha@example.org", Role: account.RoleParticipant},
		account.Account{ID: "acct-rev", Email: "lead@coastcare.org", Role: account.RoleServer},
		account.Account{ID: "acct-other", Email: "lead@riverwatch.org", Role: account.RoleServer},
	)
	f := &sharingFixture{
		certs:    certs,
		requests: newMemSharingStore(certs),
		servers:  servers,
		outbox:   newMemOutboxStore(),
		audit:    &memAuditStore{},
	}
	f.deps = SharingDeps{
		SharingStore:     f.requests,
		CertificateStore: certs,
		ServerStore:      servers,
		AccountStore:     accounts,
		OutboxStore:      f.outbox,
		AuditStore:       f.audit,
		GenerateID:       seqIDs(),
		Now:              fixedNow,
	}
	return f
}

func (f *sharingFixture) share(t *testing.T, certID, serverID string) sharing.Request {
	t.Helper()
	req, err := ExecuteShareCertificate(context.Background(), ShareCertificateInput{
		Actor: participant, CertificateID: certID, ServerID: serverID, ShowInCommunity: true,
	}, f.deps)
	if err != nil {
		t.Fatalf("share %s with %s: %v", certID, serverID, err)
	}
	return req
}

// TestExecuteShareCertificate_CreatesPendingAndNotifies verifies a share
// produces one pending request and notifies the server by email and SNS.
func TestExecuteShareCertificate_CreatesPendingAndNotifies(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c1", "srv-1")

	if req.Status != sharing.StatusPending || req.Version != 1 {
		t.Errorf("expected pending v1, got %s v%d", req.Status, req.Version)
	}
	if len(f.requests.byID) != 1 {
		t.Errorf("expected exactly one stored request, got %d", len(f.requests.byID))
	}
	if !req.ShowInCommunity || req.IsPublic {
		t.Errorf("visibility flags not carried: %+v", req)
	}

	emails := f.outbox.byType(domainOutbox.ActionTypeEmail)
	if len(emails) != 1 {
		t.Fatalf("expected 1 email entry, got %d", len(emails))
	}
	var payload EmailPayload
	if err := json.Unmarshal([]byte(emails[0].Payload), &payload); err != nil {
		t.Fatalf("bad email payload: %v", err)
	}
	if len(payload.To) != 1 || payload.To[0] != "crew@coastcare.org" {
		t.Errorf("expected the server contact email, got %v", payload.To)
	}

	topics := f.outbox.byType(domainOutbox.ActionTypeSNS)
	if len(topics) != 1 {
		t.Fatalf("expected 1 sns entry, got %d", len(topics))
	}
	var msg sns.Message
	if err := json.Unmarshal([]byte(topics[0].Payload), &msg); err != nil {
		t.Fatalf("bad sns payload: %v", err)
	}
	if msg.Attributes["event"] != EventSharingSubmitted || msg.Attributes["request_id"] != req.ID {
		t.Errorf("unexpected sns attributes %v", msg.Attributes)
	}

	if ev := f.audit.last(); ev.Category != domainAudit.CategorySharing || ev.ResourceID != req.ID {
		t.Errorf("expected a sharing audit event for %s, got %+v", req.ID, ev)
	}
}

// TestExecuteShareCertificate_Guards verifies ownership, server state and the
// one-open-request rule.
func TestExecuteShareCertificate_Guards(t *testing.T) {
	tests := []struct {
		name     string
		certID   string
		serverID string
		setup    func(f *sharingFixture, t *testing.T)
		wantErr  error
	}{
		{"not the owner", "c-other", "srv-1", nil, sharing.ErrNotOwner},
		{"inactive server", "c1", "srv-idle", nil, serverprofile.ErrInactive},
		{"unknown certificate", "nope", "srv-1", nil, sql.ErrNoRows},
		{"unknown server", "c1", "nope", nil, sql.ErrNoRows},
		{"open request exists", "c1", "srv-1", func(f *sharingFixture, t *testing.T) { f.share(t, "c1", "srv-1") }, sharing.ErrDuplicateOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSharingFixture()
			if tt.setup != nil {
				tt.setup(f, t)
			}
			before := len(f.outbox.order)
			_, err := ExecuteShareCertificate(context.Background(), ShareCertificateInput{
				Actor: participant, CertificateID: tt.certID, ServerID: tt.serverID,
			}, f.deps)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.outbox.order) != before {
				t.Error("a refused share must not notify anyone")
			}
		})
	}
}

// TestExecuteShareCertificate_SameCertificateOtherServer verifies the
// one-open-request rule is per server.
func TestExecuteShareCertificate_SameCertificateOtherServer(t *testing.T) {
	f := newSharingFixture()
	f.share(t, "c1", "srv-1")
	f.share(t, "c1", "srv-2")
	if len(f.requests.byID) != 2 {
		t.Errorf("expected 2 requests, got %d", len(f.requests.byID))
	}
}

// TestSharingWorkflow_ApproveActivatesCertificate walks pending -> under_review
// -> approved and checks activation, versioning, audit and notification.
func TestSharingWorkflow_ApproveActivatesCertificate(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c1", "srv-1")
	ctx := context.Background()

	started, err := ExecuteStartReview(ctx, ReviewActionInput{Actor: reviewer, RequestID: req.ID}, f.deps)
	if err != nil {
		t.Fatalf("start review: %v", err)
	}
	if started.Status != sharing.StatusUnderReview || started.Version != 2 {
		t.Errorf("expected under_review v2, got %s v%d", started.Status, started.Version)
	}
	if f.certs.byID["c1"].Active {
		t.Fatal("certificate must stay inactive until approval")
	}

	before := len(f.outbox.order)
	result, err := ExecuteReviewRequest(ctx, ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusApproved, ReviewNotes: "Checked with issuer",
	}, f.deps)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Request.Status != sharing.StatusApproved || !result.CertificateActivated {
		t.Errorf("expected approved with activation, got %+v", result)
	}
	if result.Request.Version != 3 || f.requests.byID[req.ID].Version != 3 {
		t.Errorf("expected version 3, got returned %d stored %d", result.Request.Version, f.requests.byID[req.ID].Version)
	}
	if result.Request.ReviewedBy != reviewer.AccountID || !result.Request.ReviewedAt.Equal(testNow) {
		t.Errorf("review metadata not set: %+v", result.Request)
	}
	if !f.certs.byID["c1"].Active {
		t.Error("approval must activate the certificate")
	}

	if ev := f.audit.last(); ev.Action != domainAudit.ActionApprove || ev.ActorID != reviewer.AccountID {
		t.Errorf("expected approve audit by reviewer, got %+v", ev)
	}
	added := f.outbox.order[before:]
	if len(added) != 2 {
		t.Fatalf("expected email and sns for the decision, got %d entries", len(added))
	}
	var payload EmailPayload
	if err := json.Unmarshal([]byte(f.outbox.entries[added[0]].Payload), &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if len(payload.To) != 1 || payload.To[0] != "aroha@example.org" {
		t.Errorf("expected the participant to be emailed, got %v", payload.To)
	}
}

// TestExecuteReviewRequest_Decisions verifies each outcome from pending keeps
// only its own text field and that the required texts are enforced.
func TestExecuteReviewRequest_Decisions(t *testing.T) {
	tests := []struct {
		name         string
		input        ReviewRequestInput
		wantErr      error
		wantStatus   string
		wantReason   string
		wantRevision string
		activated    bool
	}{
		{
			name:       "approve",
			input:      ReviewRequestInput{Status: sharing.StatusApproved, RejectionReason: "ignored", RevisionRequest: "ignored"},
			wantStatus: sharing.StatusApproved,
			activated:  true,
		},
		{
			name:       "reject with reason",
			input:      ReviewRequestInput{Status: sharing.StatusRejected, RejectionReason: "Illegible scan", RevisionRequest: "ignored"},
			wantStatus: sharing.StatusRejected,
			wantReason: "Illegible scan",
		},
		{
			name:         "needs revision",
			input:        ReviewRequestInput{Status: sharing.StatusNeedsRevision, RevisionRequest: "Upload the back page"},
			wantStatus:   sharing.StatusNeedsRevision,
			wantRevision: "Upload the back page",
		},
		{name: "reject without reason", input: ReviewRequestInput{Status: sharing.StatusRejected}, wantErr: sharing.ErrMissingRejectionReason},
		{name: "revision without text", input: ReviewRequestInput{Status: sharing.StatusNeedsRevision, RevisionRequest: "  "}, wantErr: sharing.ErrMissingRevisionRequest},
		{name: "not a decision", input: ReviewRequestInput{Status: sharing.StatusUnderReview}, wantErr: sharing.ErrInvalidDecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSharingFixture()
			req := f.share(t, "c1", "srv-1")
			in := tt.input
			in.Actor, in.RequestID = reviewer, req.ID

			result, err := ExecuteReviewRequest(context.Background(), in, f.deps)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if stored := f.requests.byID[req.ID]; stored.Status != sharing.StatusPending || stored.Version != 1 {
					t.Errorf("a refused decision must not change the request: %+v", stored)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := result.Request
			if got.Status != tt.wantStatus || got.RejectionReason != tt.wantReason || got.RevisionRequest != tt.wantRevision {
				t.Errorf("got status=%s reason=%q revision=%q", got.Status, got.RejectionReason, got.RevisionRequest)
			}
			if f.certs.byID["c1"].Active != tt.activated {
				t.Errorf("expected certificate active=%t", tt.activated)
			}
		})
	}
}

// TestExecuteReviewRequest_TerminalStatesAreFinal verifies approved and
// rejected requests cannot be decided again.
func TestExecuteReviewRequest_TerminalStatesAreFinal(t *testing.T) {
	for _, first := range []ReviewRequestInput{
		{Status: sharing.StatusApproved},
		{Status: sharing.StatusRejected, RejectionReason: "Wrong person"},
	} {
		t.Run(first.Status, func(t *testing.T) {
			f := newSharingFixture()
			req := f.share(t, "c1", "srv-1")
			first.Actor, first.RequestID = reviewer, req.ID
			if _, err := ExecuteReviewRequest(context.Background(), first, f.deps); err != nil {
				t.Fatalf("first decision: %v", err)
			}
			_, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
				Actor: reviewer, RequestID: req.ID, Status: sharing.StatusNeedsRevision, RevisionRequest: "again",
			}, f.deps)
			if !errors.Is(err, sharing.ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if _, err := ExecuteStartReview(context.Background(), ReviewActionInput{Actor: reviewer, RequestID: req.ID}, f.deps); !errors.Is(err, sharing.ErrInvalidTransition) {
				t.Errorf("start review on %s: expected ErrInvalidTransition, got %v", first.Status, err)
			}
		})
	}
}

// TestExecuteReviewRequest_ReviewerChecks verifies only the active target
// server's account may review.
func TestExecuteReviewRequest_ReviewerChecks(t *testing.T) {
	t.Run("other server", func(t *testing.T) {
		f := newSharingFixture()
		req := f.share(t, "c1", "srv-1")
		_, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
			Actor: otherReviewer, RequestID: req.ID, Status: sharing.StatusApproved,
		}, f.deps)
		if !errors.Is(err, ErrNotReviewer) {
			t.Errorf("expected ErrNotReviewer, got %v", err)
		}
	})
	t.Run("participant", func(t *testing.T) {
		f := newSharingFixture()
		req := f.share(t, "c1", "srv-1")
		_, err := ExecuteStartReview(context.Background(), ReviewActionInput{Actor: participant, RequestID: req.ID}, f.deps)
		if !errors.Is(err, ErrNotReviewer) {
			t.Errorf("expected ErrNotReviewer, got %v", err)
		}
	})
	t.Run("server deactivated after submission", func(t *testing.T) {
		f := newSharingFixture()
		req := f.share(t, "c1", "srv-1")
		srv := f.servers.byID["srv-1"]
		srv.Active = false
		f.servers.byID["srv-1"] = srv
		_, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
			Actor: reviewer, RequestID: req.ID, Status: sharing.StatusApproved,
		}, f.deps)
		if !errors.Is(err, serverprofile.ErrInactive) {
			t.Errorf("expected ErrInactive, got %v", err)
		}
	})
	t.Run("unknown request", func(t *testing.T) {
		f := newSharingFixture()
		_, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
			Actor: reviewer, RequestID: "missing", Status: sharing.StatusApproved,
		}, f.deps)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("expected sql.ErrNoRows, got %v", err)
		}
	})
}

// TestExecuteReviewRequest_ConcurrentDecisionConflicts verifies a decision
// based on a stale version is refused and leaves the certificate untouched.
func TestExecuteReviewRequest_ConcurrentDecisionConflicts(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c1", "srv-1")
	f.requests.onWrite = f.requests.bump

	_, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusApproved,
	}, f.deps)
	if !errors.Is(err, sharing.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if f.certs.byID["c1"].Active {
		t.Error("a conflicting approval must not activate the certificate")
	}
	if f.requests.byID[req.ID].Status != sharing.StatusPending {
		t.Error("a conflicting approval must not change the status")
	}
}

// TestExecuteReviewRequest_ExpiredCertificate verifies an expired certificate
// cannot be approved but can still be rejected.
func TestExecuteReviewRequest_ExpiredCertificate(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c-expired", "srv-1")

	_, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusApproved,
	}, f.deps)
	if !errors.Is(err, certification.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	result, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusRejected, RejectionReason: "Expired in January",
	}, f.deps)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Request.Status != sharing.StatusRejected || result.CertificateActivated {
		t.Errorf("unexpected result %+v", result)
	}
}

// TestExecuteReviewRequest_AlreadyActiveCertificate verifies a second approval
// by another server does not re-activate the certificate.
func TestExecuteReviewRequest_AlreadyActiveCertificate(t *testing.T) {
	f := newSharingFixture()
	first := f.share(t, "c1", "srv-1")
	second := f.share(t, "c1", "srv-2")
	ctx := context.Background()

	if _, err := ExecuteReviewRequest(ctx, ReviewRequestInput{Actor: reviewer, RequestID: first.ID, Status: sharing.StatusApproved}, f.deps); err != nil {
		t.Fatalf("first approval: %v", err)
	}
	result, err := ExecuteReviewRequest(ctx, ReviewRequestInput{Actor: otherReviewer, RequestID: second.ID, Status: sharing.StatusApproved}, f.deps)
	if err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if result.CertificateActivated {
		t.Error("second approval should report no activation")
	}
}

// TestExecuteReviewRequest_NotificationFailureDoesNotFailReview verifies the
// decision stands when the outbox cannot be written.
func TestExecuteReviewRequest_NotificationFailureDoesNotFailReview(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c1", "srv-1")
	f.outbox.saveErr = errBoom
	f.audit.err = errBoom

	result, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusApproved,
	}, f.deps)
	if err != nil {
		t.Fatalf("expected success despite outbox failure, got %v", err)
	}
	if result.Request.Status != sharing.StatusApproved {
		t.Errorf("unexpected status %s", result.Request.Status)
	}
}

// TestExecuteResubmitRequest verifies needs_revision -> pending with the
// revision text cleared and an optional replacement file.
func TestExecuteResubmitRequest(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c1", "srv-1")
	ctx := context.Background()
	if _, err := ExecuteReviewRequest(ctx, ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusNeedsRevision, RevisionRequest: "Need the back page",
	}, f.deps); err != nil {
		t.Fatalf("request revision: %v", err)
	}

	if _, err := ExecuteResubmitRequest(ctx, ResubmitRequestInput{Actor: otherReviewer, RequestID: req.ID}, f.deps); !errors.Is(err, sharing.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for a stranger, got %v", err)
	}

	got, err := ExecuteResubmitRequest(ctx, ResubmitRequestInput{Actor: participant, RequestID: req.ID, FileRef: "files/c1-v2.pdf"}, f.deps)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got.Status != sharing.StatusPending || got.RevisionRequest != "" {
		t.Errorf("expected pending with cleared revision text, got %+v", got)
	}
	if got.Version != 3 {
		t.Errorf("expected version 3, got %d", got.Version)
	}
	if f.certs.byID["c1"].FileRef != "files/c1-v2.pdf" {
		t.Errorf("expected replaced file ref, got %s", f.certs.byID["c1"].FileRef)
	}
	if last := f.outbox.byType(domainOutbox.ActionTypeSNS); len(last) == 0 || !json.Valid([]byte(last[len(last)-1].Payload)) {
		t.Error("expected an sns notification for the resubmission")
	}

	if _, err := ExecuteResubmitRequest(ctx, ResubmitRequestInput{Actor: participant, RequestID: req.ID}, f.deps); !errors.Is(err, sharing.ErrInvalidTransition) {
		t.Errorf("resubmitting a pending request: expected ErrInvalidTransition, got %v", err)
	}
}

// TestExecuteResubmitRequest_ActiveCertificateFile verifies an approved
// certificate's file stays put and a failed resubmission writes nothing.
func TestExecuteResubmitRequest_ActiveCertificateFile(t *testing.T) {
	f := newSharingFixture()
	ctx := context.Background()
	first := f.share(t, "c1", "srv-1")
	if _, err := ExecuteReviewRequest(ctx, ReviewRequestInput{
		Actor: reviewer, RequestID: first.ID, Status: sharing.StatusApproved,
	}, f.deps); err != nil {
		t.Fatalf("approve: %v", err)
	}
	second := f.share(t, "c1", "srv-2")
	if _, err := ExecuteReviewRequest(ctx, ReviewRequestInput{
		Actor: otherReviewer, RequestID: second.ID, Status: sharing.StatusNeedsRevision, RevisionRequest: "Back page",
	}, f.deps); err != nil {
		t.Fatalf("request revision: %v", err)
	}

	_, err := ExecuteResubmitRequest(ctx, ResubmitRequestInput{Actor: participant, RequestID: second.ID, FileRef: "files/unreviewed.pdf"}, f.deps)
	if !errors.Is(err, certification.ErrFileLocked) {
		t.Fatalf("expected ErrFileLocked, got %v", err)
	}
	if c := f.certs.byID["c1"]; !c.Active || c.FileRef != "files/c1.pdf" {
		t.Errorf("certificate changed: active=%v file_ref=%s", c.Active, c.FileRef)
	}
	if got := f.requests.byID[second.ID]; got.Status != sharing.StatusNeedsRevision {
		t.Errorf("request should still need revision, got %s", got.Status)
	}
}

// TestExecuteResubmitRequest_ConflictKeepsFile verifies a stale resubmission
// leaves the certificate file untouched.
func TestExecuteResubmitRequest_ConflictKeepsFile(t *testing.T) {
	f := newSharingFixture()
	ctx := context.Background()
	req := f.share(t, "c1", "srv-1")
	if _, err := ExecuteReviewRequest(ctx, ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusNeedsRevision, RevisionRequest: "Back page",
	}, f.deps); err != nil {
		t.Fatalf("request revision: %v", err)
	}
	f.requests.onWrite = f.requests.bump

	_, err := ExecuteResubmitRequest(ctx, ResubmitRequestInput{Actor: participant, RequestID: req.ID, FileRef: "files/c1-v2.pdf"}, f.deps)
	if !errors.Is(err, sharing.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if ref := f.certs.byID["c1"].FileRef; ref != "files/c1.pdf" {
		t.Errorf("file replaced despite conflict: %s", ref)
	}
}

// TestSharingNotifications_CertificateNameIsLiteral verifies a name written as
// Markdown does not become a link in the emails.
func TestSharingNotifications_CertificateNameIsLiteral(t *testing.T) {
	f := newSharingFixture()
	c := f.certs.byID["c1"]
	c.Name = "[Verify here](https://evil.example) www.evil.example"
	f.certs.byID["c1"] = c

	req := f.share(t, "c1", "srv-1")
	if _, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusRejected, RejectionReason: "Unreadable",
	}, f.deps); err != nil {
		t.Fatalf("reject: %v", err)
	}

	emails := f.outbox.byType(domainOutbox.ActionTypeEmail)
	if len(emails) != 2 {
		t.Fatalf("expected share and review emails, got %d", len(emails))
	}
	for _, e := range emails {
		var payload EmailPayload
		if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
			t.Fatalf("decode email payload: %v", err)
		}
		if strings.Contains(payload.HTML, "<a ") || !strings.Contains(payload.HTML, "Verify here") {
			t.Errorf("certificate name rendered as markup: %s", payload.HTML)
		}
	}
}

// TestExecuteShareCertificate_AfterRejection verifies a closed request does not
// block a fresh share to the same server.
func TestExecuteShareCertificate_AfterRejection(t *testing.T) {
	f := newSharingFixture()
	req := f.share(t, "c1", "srv-1")
	if _, err := ExecuteReviewRequest(context.Background(), ReviewRequestInput{
		Actor: reviewer, RequestID: req.ID, Status: sharing.StatusRejected, RejectionReason: "Blurry",
	}, f.deps); err != nil {
		t.Fatalf("reject: %v", err)
	}
	again := f.share(t, "c1", "srv-1")
	if again.ID == req.ID || again.Status != sharing.StatusPending {
		t.Errorf("expected a new pending request, got %+v", again)
	}
}
