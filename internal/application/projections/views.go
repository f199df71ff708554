package projections

import (
	"time"

	"ecocrew/internal/adapters/markdown"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/impact"
	"ecocrew/internal/domain/operations"
	domainOutbox "ecocrew/internal/domain/outbox"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

const dateLayout = "2006-01-02"

// formatDate renders a calendar date, or "" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// formatTimePtr returns nil for the zero time so it encodes as null.
func formatTimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// EventView is the API shape of an event.
type EventView struct {
	ID              string     `json:"id"`
	ServerID        string     `json:"server_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"description_html"`
	Location        string     `json:"location"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	Capacity        int        `json:"capacity"`
	Status          string     `json:"status"`
	Registered      int        `json:"registered"`
	Full            bool       `json:"full"`
	Joined          bool       `json:"joined"`
}

// NewEventView renders e with its Markdown description converted to HTML.
func NewEventView(e event.Event, registered int, joined bool) EventView {
	return EventView{
		ID:              e.ID,
		ServerID:        e.ServerID,
		Title:           e.Title,
		Description:     e.Description,
		DescriptionHTML: markdown.ToHTML(e.Description),
		Location:        e.Location,
		StartsAt:        e.StartsAt,
		EndsAt:          formatTimePtr(e.EndsAt),
		Capacity:        e.Capacity,
		Status:          e.Status,
		Registered:      registered,
		Full:            e.IsFull(registered),
		Joined:          joined,
	}
}

// ImpactLogView is the API shape of an impact log.
type ImpactLogView struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	TrashKg        float64   `json:"trash_kg"`
	RecyclablesKg  float64   `json:"recyclables_kg"`
	VolunteerHours float64   `json:"volunteer_hours"`
	TreesPlanted   int       `json:"trees_planted"`
	Notes          string    `json:"notes"`
	Points         int       `json:"points"`
	LoggedAt       time.Time `json:"logged_at"`
}

// NewImpactLogView converts l.
func NewImpactLogView(l impact.Log) ImpactLogView {
	return ImpactLogView{
		ID:             l.ID,
		EventID:        l.EventID,
		TrashKg:        l.TrashKg,
		RecyclablesKg:  l.RecyclablesKg,
		VolunteerHours: l.VolunteerHours,
		TreesPlanted:   l.TreesPlanted,
		Notes:          l.Notes,
		Points:         l.Points(),
		LoggedAt:       l.LoggedAt,
	}
}

// TotalsView is the API shape of impact totals.
type TotalsView struct {
	TrashKg        float64 `json:"trash_kg"`
	RecyclablesKg  float64 `json:"recyclables_kg"`
	VolunteerHours float64 `json:"volunteer_hours"`
	TreesPlanted   int     `json:"trees_planted"`
	Points         int     `json:"points"`
	Events         int     `json:"events"`
}

func newTotalsView(t impact.Totals) TotalsView {
	return TotalsView(t)
}

// CertificateView is the API shape of a certificate.
type CertificateView struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Issuer        string    `json:"issuer"`
	IssuedOn      string    `json:"issued_on"`
	ExpiresOn     string    `json:"expires_on,omitempty"`
	FileRef       string    `json:"file_ref"`
	Active        bool      `json:"active"`
	Expired       bool      `json:"expired"`
	SharingStatus string    `json:"sharing_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewCertificateView converts c. sharingStatus is the derived status of its requests.
func NewCertificateView(c certification.Certificate, sharingStatus string, now time.Time) CertificateView {
	return CertificateView{
		ID:            c.ID,
		ParticipantID: c.ParticipantID,
		Name:          c.Name,
		Type:          c.Type,
		Issuer:        c.Issuer,
		IssuedOn:      formatDate(c.IssuedOn),
		ExpiresOn:     formatDate(c.ExpiresOn),
		FileRef:       c.FileRef,
		Active:        c.Active,
		Expired:       c.IsExpired(now),
		SharingStatus: sharingStatus,
		CreatedAt:     c.CreatedAt,
	}
}

// SharingRequestView is the API shape of a sharing request.
type SharingRequestView struct {
	ID              string     `json:"id"`
	CertificateID   string     `json:"certificate_id"`
	ParticipantID   string     `json:"participant_id"`
	ServerID        string     `json:"server_id"`
	Status          string     `json:"status"`
	IsPublic        bool       `json:"is_public"`
	ShowInCommunity bool       `json:"show_in_community"`
	ReviewNotes     string     `json:"review_notes,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RevisionRequest string     `json:"revision_request,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Version         int        `json:"version"`
}

// NewSharingRequestView converts r.
func NewSharingRequestView(r sharing.Request) SharingRequestView {
	return SharingRequestView{
		ID:              r.ID,
		CertificateID:   r.CertificateID,
		ParticipantID:   r.ParticipantID,
		ServerID:        r.ServerID,
		Status:          r.Status,
		IsPublic:        r.IsPublic,
		ShowInCommunity: r.ShowInCommunity,
		ReviewNotes:     r.ReviewNotes,
		RejectionReason: r.RejectionReason,
		RevisionRequest: r.RevisionRequest,
		ReviewedBy:      r.ReviewedBy,
		SubmittedAt:     r.SubmittedAt,
		ReviewedAt:      formatTimePtr(r.ReviewedAt),
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

// ServerView is the API shape of a server profile.
type ServerView struct {
	ID               string `json:"id"`
	OrganizationName string `json:"organization_name"`
	ContactEmail     string `json:"contact_email"`
	Description      string `json:"description"`
	Active           bool   `json:"active"`
}

// NewServerView converts p.
func NewServerView(p serverprofile.Profile) ServerView {
	return ServerView{
		ID:               p.ID,
		OrganizationName: p.OrganizationName,
		ContactEmail:     p.ContactEmail,
		Description:      p.Description,
		Active:           p.Active,
	}
}

// TaskView is the API shape of a task.
type TaskView struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueOn       string `json:"due_on,omitempty"`
	Status      string `json:"status"`
	Overdue     bool   `json:"overdue"`
}

// NewTaskView converts t.
func NewTaskView(t operations.Task, now time.Time) TaskView {
	return TaskView{
		ID:          t.ID,
		EventID:     t.EventID,
		Title:       t.Title,
		Description: t.Description,
		Assignee:    t.Assignee,
		DueOn:       formatDate(t.DueOn),
		Status:      t.Status,
		Overdue:     t.IsOverdue(now),
	}
}

// EquipmentView is the API shape of an equipment line.
type EquipmentView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	Condition string `json:"condition"`
}

// NewEquipmentView converts e.
func NewEquipmentView(e operations.Equipment) EquipmentView {
	return EquipmentView{
		ID:        e.ID,
		Name:      e.Name,
		Category:  e.Category,
		Quantity:  e.Quantity,
		Condition: e.Condition,
	}
}

// ComplianceView is the API shape of a compliance record.
type ComplianceView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	Reference  string `json:"reference"`
	ValidFrom  string `json:"valid_from,omitempty"`
	ValidUntil string `json:"valid_until"`
	State      string `json:"state"`
}

// NewComplianceView converts c with its state as of now.
func NewComplianceView(c operations.ComplianceRecord, now time.Time) ComplianceView {
	return ComplianceView{
		ID:         c.ID,
		Title:      c.Title,
		Kind:       c.Kind,
		Reference:  c.Reference,
		ValidFrom:  formatDate(c.ValidFrom),
		ValidUntil: formatDate(c.ValidUntil),
		State:      c.State(now),
	}
}

// FinanceView is the API shape of a finance entry.
type FinanceView struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id,omitempty"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	OccurredOn  string `json:"occurred_on"`
}

// NewFinanceView converts f.
func NewFinanceView(f operations.FinanceEntry) FinanceView {
	return FinanceView{
		ID:          f.ID,
		EventID:     f.EventID,
		Kind:        f.Kind,
		Category:    f.Category,
		AmountCents: f.AmountCents,
		Description: f.Description,
		OccurredOn:  formatDate(f.OccurredOn),
	}
}

// OutboxEntryView is the API shape of an outbox entry. The payload is omitted
// because it carries recipient addresses.
type OutboxEntryView struct {
	ID              string     `json:"id"`
	ActionType      string     `json:"action_type"`
	Status          string     `json:"status"`
	Attempts        int        `json:"attempts"`
	MaxAttempts     int        `json:"max_attempts"`
	NextAttemptAt   time.Time  `json:"next_attempt_at"`
	LastAttemptedAt *time.Time `json:"last_attempted_at"`
	CreatedAt       time.Time  `json:"created_at"`
	ExternalID      string     `json:"external_id,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// NewOutboxEntryView converts e.
func NewOutboxEntryView(e domainOutbox.Entry) OutboxEntryView {
	return OutboxEntryView{
		ID:              e.ID,
		ActionType:      e.ActionType,
		Status:          e.Status,
		Attempts:        e.Attempts,
		MaxAttempts:     e.MaxAttempts,
		NextAttemptAt:   e.NextAttemptAt,
		LastAttemptedAt: formatTimePtr(e.LastAttemptedAt),
		CreatedAt:       e.CreatedAt,
		ExternalID:      e.ExternalID,
		ErrorMessage:    e.ErrorMessage,
	}
}
