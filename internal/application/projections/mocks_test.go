package projections

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	auditStore "ecocrew/internal/adapters/storage/audit"
	eventStore "ecocrew/internal/adapters/storage/event"
	serverStore "ecocrew/internal/adapters/storage/serverprofile"
	sharingStore "ecocrew/internal/adapters/storage/sharing"
	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/impact"
	"ecocrew/internal/domain/operations"
	domainOutbox "ecocrew/internal/domain/outbox"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

var fixedNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC) // a Wednesday

type mockEventStore struct {
	events        []event.Event
	counts        map[string]int
	registrations map[string][]string // participant -> event IDs
}

// GetByID returns a seeded event or an error wrapping sql.ErrNoRows.
func (m *mockEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return event.Event{}, fmt.Errorf("event %s: %w", id, sql.ErrNoRows)
}

// List applies the status and start filters, preserving seed order.
func (m *mockEventStore) List(_ context.Context, f eventStore.ListFilter) ([]event.Event, error) {
	var out []event.Event
	for _, e := range m.events {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.ServerID != "" && e.ServerID != f.ServerID {
			continue
		}
		if !f.StartsAfter.IsZero() && e.StartsAt.Before(f.StartsAfter) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RegistrationCounts returns the seeded counts.
func (m *mockEventStore) RegistrationCounts(_ context.Context) (map[string]int, error) {
	if m.counts == nil {
		return map[string]int{}, nil
	}
	return m.counts, nil
}

// RegisteredEventIDs returns the seeded registrations for the participant.
func (m *mockEventStore) RegisteredEventIDs(_ context.Context, participantID string) ([]string, error) {
	return m.registrations[participantID], nil
}

type mockImpactStore struct {
	logs []impact.Log
}

// ListByParticipant returns the participant's seeded logs.
func (m *mockImpactStore) ListByParticipant(_ context.Context, participantID string) ([]impact.Log, error) {
	var out []impact.Log
	for _, l := range m.logs {
		if l.ParticipantID == participantID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListSince returns logs at or after since.
func (m *mockImpactStore) ListSince(_ context.Context, since time.Time) ([]impact.Log, error) {
	var out []impact.Log
	for _, l := range m.logs {
		if !l.LoggedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockNameStore struct {
	names map[string]string
}

// DisplayNames returns the seeded names for the requested IDs.
func (m *mockNameStore) DisplayNames(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if n, ok := m.names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type mockCertificateStore struct {
	certs []certification.Certificate
}

// GetByID returns a seeded certificate or an error wrapping sql.ErrNoRows.
func (m *mockCertificateStore) GetByID(_ context.Context, id string) (certification.Certificate, error) {
	for _, c := range m.certs {
		if c.ID == id {
			return c, nil
		}
	}
	return certification.Certificate{}, fmt.Errorf("certificate %s: %w", id, sql.ErrNoRows)
}

// ListByParticipant returns the participant's seeded certificates.
func (m *mockCertificateStore) ListByParticipant(_ context.Context, participantID string) ([]certification.Certificate, error) {
	var out []certification.Certificate
	for _, c := range m.certs {
		if c.ParticipantID == participantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetMany returns the seeded certificates with the given IDs.
func (m *mockCertificateStore) GetMany(_ context.Context, ids []string) (map[string]certification.Certificate, error) {
	out := make(map[string]certification.Certificate)
	for _, id := range ids {
		for _, c := range m.certs {
			if c.ID == id {
				out[id] = c
			}
		}
	}
	return out, nil
}

type mockSharingStore struct {
	requests []sharing.Request
}

// List applies the sharing filters to the seeded requests.
func (m *mockSharingStore) List(_ context.Context, f sharingStore.ListFilter) ([]sharing.Request, error) {
	var out []sharing.Request
	for _, r := range m.requests {
		if f.ServerID != "" && r.ServerID != f.ServerID {
			continue
		}
		if f.ParticipantID != "" && r.ParticipantID != f.ParticipantID {
			continue
		}
		if f.CertificateID != "" && r.CertificateID != f.CertificateID {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, r.Status) {
			continue
		}
		if f.CommunityOnly && !r.IsCommunityVisible() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type mockServerStore struct {
	servers []serverprofile.Profile
}

// GetByID returns a seeded server or an error wrapping sql.ErrNoRows.
func (m *mockServerStore) GetByID(_ context.Context, id string) (serverprofile.Profile, error) {
	for _, s := range m.servers {
		if s.ID == id {
			return s, nil
		}
	}
	return serverprofile.Profile{}, fmt.Errorf("server %s: %w", id, sql.ErrNoRows)
}

// GetByAccountID returns the server owned by accountID or an error wrapping sql.ErrNoRows.
func (m *mockServerStore) GetByAccountID(_ context.Context, accountID string) (serverprofile.Profile, error) {
	for _, s := range m.servers {
		if s.AccountID == accountID {
			return s, nil
		}
	}
	return serverprofile.Profile{}, fmt.Errorf("server for %s: %w", accountID, sql.ErrNoRows)
}

// List returns seeded servers, optionally only active ones.
func (m *mockServerStore) List(_ context.Context, f serverStore.ListFilter) ([]serverprofile.Profile, error) {
	var out []serverprofile.Profile
	for _, s := range m.servers {
		if f.ActiveOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type mockOpsStore struct {
	tasks      []operations.Task
	equipment  []operations.Equipment
	compliance []operations.ComplianceRecord
	finances   []operations.FinanceEntry
}

// ListTasks returns the server's seeded tasks.
func (m *mockOpsStore) ListTasks(_ context.Context, serverID string) ([]operations.Task, error) {
	var out []operations.Task
	for _, t := range m.tasks {
		if t.ServerID == serverID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListEquipment returns the server's seeded equipment.
func (m *mockOpsStore) ListEquipment(_ context.Context, serverID string) ([]operations.Equipment, error) {
	var out []operations.Equipment
	for _, e := range m.equipment {
		if e.ServerID == serverID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListCompliance returns the server's seeded compliance records.
func (m *mockOpsStore) ListCompliance(_ context.Context, serverID string) ([]operations.ComplianceRecord, error) {
	var out []operations.ComplianceRecord
	for _, c := range m.compliance {
		if c.ServerID == serverID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListFinances returns the server's seeded finance entries.
func (m *mockOpsStore) ListFinances(_ context.Context, serverID string) ([]operations.FinanceEntry, error) {
	var out []operations.FinanceEntry
	for _, f := range m.finances {
		if f.ServerID == serverID {
			out = append(out, f)
		}
	}
	return out, nil
}

type mockAuditStore struct {
	lastFilter auditStore.Filter
	lastLimit  int
	events     []domainAudit.Event
}

// List records the filter and returns the seeded events.
func (m *mockAuditStore) List(_ context.Context, f auditStore.Filter, limit int) ([]domainAudit.Event, error) {
	m.lastFilter = f
	m.lastLimit = limit
	return m.events, nil
}

type mockOutboxStore struct {
	entries []domainOutbox.Entry
}

// ListByStatus returns seeded entries in status; empty status returns all.
func (m *mockOutboxStore) ListByStatus(_ context.Context, status string, limit int) ([]domainOutbox.Entry, error) {
	var out []domainOutbox.Entry
	for _, e := range m.entries {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
