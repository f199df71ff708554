package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/certification"
)

// CertificateStore defines the certificate persistence orchestrators use.
type CertificateStore interface {
	GetByID(ctx context.Context, id string) (certification.Certificate, error)
	Save(ctx context.Context, c certification.Certificate) error
}

// UploadCertificateInput carries input for the orchestrator.
// FileRef points into external file storage; the file itself is not handled here.
type UploadCertificateInput struct {
	Actor     Actor // participant
	Name      string
	Type      string
	Issuer    string
	IssuedOn  time.Time
	ExpiresOn time.Time
	FileRef   string
}

// UploadCertificateDeps holds dependencies for UploadCertificate.
type UploadCertificateDeps struct {
	CertificateStore CertificateStore
	AuditStore       AuditRecorder
	GenerateID       func() string
	Now              func() time.Time
}

// ExecuteUploadCertificate records a participant's certificate metadata.
// PRE: valid metadata and file reference
// POST: certificate persisted inactive; only an approved share activates it
func ExecuteUploadCertificate(ctx context.Context, input UploadCertificateInput, deps UploadCertificateDeps) (certification.Certificate, error) {
	now := deps.Now()
	cert := certification.Certificate{
		ID:            deps.GenerateID(),
		ParticipantID: input.Actor.AccountID,
		Name:          strings.TrimSpace(input.Name),
		Type:          input.Type,
		Issuer:        strings.TrimSpace(input.Issuer),
		IssuedOn:      input.IssuedOn,
		ExpiresOn:     input.ExpiresOn,
		FileRef:       strings.TrimSpace(input.FileRef),
		Active:        false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := cert.Validate(); err != nil {
		return certification.Certificate{}, err
	}
	if err := deps.CertificateStore.Save(ctx, cert); err != nil {
		return certification.Certificate{}, err
	}

	slog.Info("certificate_event", "event", "uploaded", "certificate_id", cert.ID, "participant_id", cert.ParticipantID, "type", cert.Type)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, input.Actor, domainAudit.CategoryCertificate, domainAudit.ActionCreate).
			WithResource("certificate", cert.ID))
	return cert, nil
}
