package sharing

import (
	"errors"
	"strings"
	"time"
)

// Request statuses. StatusNotShared is never stored: it is the derived status
// of a certificate with no request.
const (
	StatusNotShared     = "not_shared"
	StatusPending       = "pending"
	StatusUnderReview   = "under_review"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusNeedsRevision = "needs_revision"
)

// ValidStatuses contains all stored request statuses.
var ValidStatuses = []string{StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusNeedsRevision}

// DecisionStatuses are the outcomes a reviewer may choose.
var DecisionStatuses = []string{StatusApproved, StatusRejected, StatusNeedsRevision}

// MaxTextLength bounds every reviewer text field.
const MaxTextLength = 2000

// Domain errors
var (
	ErrEmptyCertificateID     = errors.New("certificate ID is required")
	ErrEmptyParticipantID     = errors.New("participant ID is required")
	ErrEmptyServerID          = errors.New("server ID is required")
	ErrEmptyReviewerID        = errors.New("reviewer ID is required")
	ErrInvalidStatus          = errors.New("sharing status is not recognised")
	ErrInvalidDecision        = errors.New("decision must be one of: approved, rejected, needs_revision")
	ErrInvalidTransition      = errors.New("sharing status transition not allowed")
	ErrMissingRejectionReason = errors.New("a rejection reason is required")
	ErrMissingRevisionRequest = errors.New("a revision request is required")
	ErrTextTooLong            = errors.New("review text cannot exceed 2000 characters")
	ErrNotOwner               = errors.New("only the certificate owner can change this request")
	ErrDuplicateOpen          = errors.New("an open sharing request already exists for this certificate and server")
	ErrConflict               = errors.New("sharing request was modified by someone else")
)

// transitions is the sharing state machine. Approved and rejected are terminal.
var transitions = map[string][]string{
	StatusPending:       {StatusUnderReview, StatusApproved, StatusRejected, StatusNeedsRevision},
	StatusUnderReview:   {StatusApproved, StatusRejected, StatusNeedsRevision},
	StatusNeedsRevision: {StatusPending},
}

// Request links a certificate to the server asked to review it.
type Request struct {
	ID              string
	CertificateID   string
	ParticipantID   string
	ServerID        string
	Status          string
	IsPublic        bool // visible to anyone once approved
	ShowInCommunity bool // listed in the community feed once approved
	ReviewNotes     string
	RejectionReason string
	RevisionRequest string
	ReviewedBy      string // reviewer account ID
	SubmittedAt     time.Time
	ReviewedAt      time.Time
	UpdatedAt       time.Time
	Version         int // optimistic concurrency token
}

// Decision is a reviewer's verdict on a request.
type Decision struct {
	ReviewerID      string
	Status          string
	ReviewNotes     string
	RejectionReason string
	RevisionRequest string
}

// NewRequest builds a pending request.
// POST: Status is pending, Version is 1
func NewRequest(id, certificateID, participantID, serverID string, isPublic, showInCommunity bool, now time.Time) Request {
	return Request{
		ID:              id,
		CertificateID:   certificateID,
		ParticipantID:   participantID,
		ServerID:        serverID,
		Status:          StatusPending,
		IsPublic:        isPublic,
		ShowInCommunity: showInCommunity,
		SubmittedAt:     now,
		UpdatedAt:       now,
		Version:         1,
	}
}

// Validate checks if the Request has valid data.
// PRE: Request struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Request) Validate() error {
	if r.CertificateID == "" {
		return ErrEmptyCertificateID
	}
	if r.ParticipantID == "" {
		return ErrEmptyParticipantID
	}
	if r.ServerID == "" {
		return ErrEmptyServerID
	}
	if !isOneOf(r.Status, ValidStatuses) {
		return ErrInvalidStatus
	}
	if len(r.ReviewNotes) > MaxTextLength || len(r.RejectionReason) > MaxTextLength || len(r.RevisionRequest) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// IsOpen reports whether the request still awaits an outcome.
func (r *Request) IsOpen() bool {
	return IsOpenStatus(r.Status)
}

// IsOpenStatus reports whether status blocks a second request for the same
// certificate and server.
func IsOpenStatus(status string) bool {
	return status == StatusPending || status == StatusUnderReview || status == StatusNeedsRevision
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to string) bool {
	return isOneOf(to, transitions[from])
}

// StartReview moves a pending request under review.
// PRE: Status is pending, reviewerID is non-empty
// POST: Status is under_review, ReviewedBy is reviewerID
func (r *Request) StartReview(reviewerID string, now time.Time) error {
	if reviewerID == "" {
		return ErrEmptyReviewerID
	}
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusUnderReview
	r.ReviewedBy = reviewerID
	r.UpdatedAt = now
	return nil
}

// Decide applies a reviewer's decision.
// PRE: Status is pending or under_review; d.Status is a decision status;
// rejected carries a reason, needs_revision carries a revision request
// POST: Status is d.Status, only the text field matching the outcome is kept
func (r *Request) Decide(d Decision, now time.Time) error {
	if d.ReviewerID == "" {
		return ErrEmptyReviewerID
	}
	if !isOneOf(d.Status, DecisionStatuses) {
		return ErrInvalidDecision
	}
	if !CanTransition(r.Status, d.Status) {
		return ErrInvalidTransition
	}

	notes := strings.TrimSpace(d.ReviewNotes)
	reason := strings.TrimSpace(d.RejectionReason)
	revision := strings.TrimSpace(d.RevisionRequest)
	if len(notes) > MaxTextLength || len(reason) > MaxTextLength || len(revision) > MaxTextLength {
		return ErrTextTooLong
	}

	switch d.Status {
	case StatusRejected:
		if reason == "" {
			return ErrMissingRejectionReason
		}
		revision = ""
	case StatusNeedsRevision:
		if revision == "" {
			return ErrMissingRevisionRequest
		}
		reason = ""
	case StatusApproved:
		reason, revision = "", ""
	}

	r.Status = d.Status
	r.ReviewNotes = notes
	r.RejectionReason = reason
	r.RevisionRequest = revision
	r.ReviewedBy = d.ReviewerID
	r.ReviewedAt = now
	r.UpdatedAt = now
	return nil
}

// Resubmit returns a request sent back for revision to the review queue.
// PRE: Status is needs_revision, participantID owns the request
// POST: Status is pending, RevisionRequest is cleared
func (r *Request) Resubmit(participantID string, now time.Time) error {
	if participantID != r.ParticipantID {
		return ErrNotOwner
	}
	if !CanTransition(r.Status, StatusPending) {
		return ErrInvalidTransition
	}
	r.Status = StatusPending
	r.RevisionRequest = ""
	r.SubmittedAt = now
	r.UpdatedAt = now
	return nil
}

// IsCommunityVisible reports whether the request belongs in the community feed.
func (r *Request) IsCommunityVisible() bool {
	return r.Status == StatusApproved && r.ShowInCommunity
}

// IsPubliclyVisible reports whether anyone may view the shared certificate.
func (r *Request) IsPubliclyVisible() bool {
	return r.Status == StatusApproved && r.IsPublic
}

// DerivedStatus returns the status of the most recently updated request, or
// not_shared when there is none.
func DerivedStatus(requests []Request) string {
	if len(requests) == 0 {
		return StatusNotShared
	}
	latest := requests[0]
	for _, r := range requests[1:] {
		if r.UpdatedAt.After(latest.UpdatedAt) {
			latest = r
		}
	}
	return latest.Status
}

func isOneOf(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
