package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sharingStore "ecocrew/internal/adapters/storage/sharing"
	"ecocrew/internal/domain/sharing"
)

// ErrCertificateHidden is returned when the viewer may not see a certificate.
var ErrCertificateHidden = errors.New("certificate is not visible to this account")

// GetMyCertificatesQuery carries input for the my-certificates projection.
type GetMyCertificatesQuery struct {
	ParticipantID string
	Now           time.Time // optional: if zero, time.Now() is used
}

// MyCertificate is a certificate with the requests made for it.
type MyCertificate struct {
	CertificateView
	Requests []SharingRequestView `json:"requests"`
}

// GetCertificatesDeps holds dependencies for the certificate projections.
type GetCertificatesDeps struct {
	CertificateStore CertificateStore
	SharingStore     SharingStore
	ServerStore      ServerStore
}

// QueryGetMyCertificates lists a participant's certificates, each with its
// derived sharing status.
// PRE: query.ParticipantID is non-empty
// POST: SharingStatus is the latest request's status, or not_shared
func QueryGetMyCertificates(ctx context.Context, query GetMyCertificatesQuery, deps GetCertificatesDeps) ([]MyCertificate, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	certs, err := deps.CertificateStore.ListByParticipant(ctx, query.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	requests, err := deps.SharingStore.List(ctx, sharingStore.ListFilter{ParticipantID: query.ParticipantID})
	if err != nil {
		return nil, fmt.Errorf("list sharing requests: %w", err)
	}
	byCert := make(map[string][]sharing.Request)
	for _, r := range requests {
		byCert[r.CertificateID] = append(byCert[r.CertificateID], r)
	}

	out := make([]MyCertificate, 0, len(certs))
	for _, c := range certs {
		reqs := byCert[c.ID]
		views := make([]SharingRequestView, 0, len(reqs))
		for _, r := range reqs {
			views = append(views, NewSharingRequestView(r))
		}
		out = append(out, MyCertificate{
			CertificateView: NewCertificateView(c, sharing.DerivedStatus(reqs), now),
			Requests:        views,
		})
	}
	return out, nil
}

// GetCertificateQuery carries input for the certificate detail projection.
type GetCertificateQuery struct {
	CertificateID   string
	ViewerAccountID string // empty for anonymous viewers
	ViewerIsAdmin   bool
	Now             time.Time // optional: if zero, time.Now() is used
}

// QueryGetCertificate returns a certificate if the viewer may see it: its
// owner, an admin, a server holding a request for it, or anyone once a public
// share of it is approved.
// POST: Returns ErrCertificateHidden when none of those apply
func QueryGetCertificate(ctx context.Context, query GetCertificateQuery, deps GetCertificatesDeps) (CertificateView, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	c, err := deps.CertificateStore.GetByID(ctx, query.CertificateID)
	if err != nil {
		return CertificateView{}, err
	}
	requests, err := deps.SharingStore.List(ctx, sharingStore.ListFilter{CertificateID: c.ID})
	if err != nil {
		return CertificateView{}, fmt.Errorf("list sharing requests: %w", err)
	}
	view := NewCertificateView(c, sharing.DerivedStatus(requests), now)

	if query.ViewerIsAdmin || (query.ViewerAccountID != "" && query.ViewerAccountID == c.ParticipantID) {
		return view, nil
	}
	for _, r := range requests {
		if r.IsPubliclyVisible() {
			return view, nil
		}
	}
	if query.ViewerAccountID != "" && len(requests) > 0 {
		srv, err := deps.ServerStore.GetByAccountID(ctx, query.ViewerAccountID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return CertificateView{}, fmt.Errorf("lookup viewer server: %w", err)
		}
		for _, r := range requests {
			if err == nil && r.ServerID == srv.ID {
				return view, nil
			}
		}
	}
	return CertificateView{}, ErrCertificateHidden
}
