package projections

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	serverStore "ecocrew/internal/adapters/storage/serverprofile"
	sharingStore "ecocrew/internal/adapters/storage/sharing"
	"ecocrew/internal/application/listutil"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/sharing"
)

// Errors returned for unusable filters.
var (
	ErrInvalidStatusFilter = errors.New("status filter must be a sharing status")
	ErrInvalidTypeFilter   = errors.New("type filter must be a certificate type")
)

// ListPendingReviewsQuery carries input for the reviewer queue projection.
type ListPendingReviewsQuery struct {
	ServerID string
	Status   string // empty = pending and under_review
	Type     string // certificate type
	Search   string // matched against certificate name, issuer and participant name
	Page     listutil.PageParams
	Now      time.Time // optional: if zero, time.Now() is used
}

// ReviewItem is one request in the reviewer queue.
type ReviewItem struct {
	Request         SharingRequestView `json:"request"`
	Certificate     CertificateView    `json:"certificate"`
	ParticipantName string             `json:"participant_name"`
}

// ListPendingReviewsResult carries the output of the reviewer queue projection.
type ListPendingReviewsResult struct {
	Items    []ReviewItem      `json:"items"`
	PageInfo listutil.PageInfo `json:"page_info"`
}

// ListReviewsDeps holds dependencies for the review and community projections.
type ListReviewsDeps struct {
	SharingStore     SharingStore
	CertificateStore CertificateStore
	ProfileStore     DisplayNameStore
	ServerStore      ServerStore
}

// QueryListPendingReviews lists the requests targeting one server, oldest
// submission first.
// PRE: query.ServerID is the reviewer's server profile ID
// POST: Only requests for query.ServerID are returned
func QueryListPendingReviews(ctx context.Context, query ListPendingReviewsQuery, deps ListReviewsDeps) (ListPendingReviewsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	statuses := []string{sharing.StatusPending, sharing.StatusUnderReview}
	if query.Status != "" {
		if !slices.Contains(sharing.ValidStatuses, query.Status) {
			return ListPendingReviewsResult{}, ErrInvalidStatusFilter
		}
		statuses = []string{query.Status}
	}
	if query.Type != "" && !certification.IsValidType(query.Type) {
		return ListPendingReviewsResult{}, ErrInvalidTypeFilter
	}

	requests, err := deps.SharingStore.List(ctx, sharingStore.ListFilter{ServerID: query.ServerID, Statuses: statuses})
	if err != nil {
		return ListPendingReviewsResult{}, fmt.Errorf("list sharing requests: %w", err)
	}
	certs, names, err := loadRequestContext(ctx, requests, deps)
	if err != nil {
		return ListPendingReviewsResult{}, err
	}

	search := strings.ToLower(strings.TrimSpace(query.Search))
	items := make([]ReviewItem, 0, len(requests))
	for _, r := range requests {
		c, ok := certs[r.CertificateID]
		if !ok {
			continue
		}
		if query.Type != "" && c.Type != query.Type {
			continue
		}
		name := names[r.ParticipantID]
		if search != "" && !matchesAny(search, c.Name, c.Issuer, name) {
			continue
		}
		items = append(items, ReviewItem{
			Request:         NewSharingRequestView(r),
			Certificate:     NewCertificateView(c, r.Status, now),
			ParticipantName: name,
		})
	}
	slices.SortStableFunc(items, func(a, b ReviewItem) int {
		return a.Request.SubmittedAt.Compare(b.Request.SubmittedAt)
	})

	page := query.Page
	if page.PerPage == 0 {
		page = listutil.PageParams{Page: 1, PerPage: listutil.DefaultPerPage}
	}
	info := listutil.NewPageInfo(page.Page, page.PerPage, len(items))
	page.Page = info.Page
	return ListPendingReviewsResult{Items: listutil.Paginate(items, page), PageInfo: info}, nil
}

// CommunityItem is one approved certificate in the public feed.
type CommunityItem struct {
	RequestID        string    `json:"request_id"`
	CertificateID    string    `json:"certificate_id"`
	CertificateName  string    `json:"certificate_name"`
	CertificateType  string    `json:"certificate_type"`
	Issuer           string    `json:"issuer"`
	ParticipantName  string    `json:"participant_name"`
	OrganizationName string    `json:"organization_name"`
	ApprovedAt       time.Time `json:"approved_at"`
}

// ListCommunityQuery carries input for the community feed projection.
type ListCommunityQuery struct {
	Limit int // 0 = 50
}

// QueryListCommunity lists approved requests the participant chose to show in
// the community feed, most recent first.
// POST: Every item has status approved and show_in_community set
func QueryListCommunity(ctx context.Context, query ListCommunityQuery, deps ListReviewsDeps) ([]CommunityItem, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	requests, err := deps.SharingStore.List(ctx, sharingStore.ListFilter{CommunityOnly: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list community requests: %w", err)
	}
	certs, names, err := loadRequestContext(ctx, requests, deps)
	if err != nil {
		return nil, err
	}
	servers, err := deps.ServerStore.List(ctx, serverStore.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	orgs := make(map[string]string, len(servers))
	for _, s := range servers {
		orgs[s.ID] = s.OrganizationName
	}

	items := make([]CommunityItem, 0, len(requests))
	for _, r := range requests {
		if !r.IsCommunityVisible() {
			continue
		}
		c, ok := certs[r.CertificateID]
		if !ok {
			continue
		}
		name := names[r.ParticipantID]
		if name == "" {
			name = anonymousName
		}
		items = append(items, CommunityItem{
			RequestID:        r.ID,
			CertificateID:    c.ID,
			CertificateName:  c.Name,
			CertificateType:  c.Type,
			Issuer:           c.Issuer,
			ParticipantName:  name,
			OrganizationName: orgs[r.ServerID],
			ApprovedAt:       r.ReviewedAt,
		})
	}
	return items, nil
}

// loadRequestContext fetches the certificates and participant names the
// requests refer to.
func loadRequestContext(ctx context.Context, requests []sharing.Request, deps ListReviewsDeps) (map[string]certification.Certificate, map[string]string, error) {
	certIDs := make([]string, 0, len(requests))
	participantIDs := make([]string, 0, len(requests))
	for _, r := range requests {
		certIDs = append(certIDs, r.CertificateID)
		participantIDs = append(participantIDs, r.ParticipantID)
	}
	certs, err := deps.CertificateStore.GetMany(ctx, uniq(certIDs))
	if err != nil {
		return nil, nil, fmt.Errorf("load certificates: %w", err)
	}
	names, err := deps.ProfileStore.DisplayNames(ctx, uniq(participantIDs))
	if err != nil {
		return nil, nil, fmt.Errorf("load display names: %w", err)
	}
	return certs, names, nil
}

func uniq(ids []string) []string {
	slices.Sort(ids)
	return slices.Compact(ids)
}

func matchesAny(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
