package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	accountStore "ecocrew/internal/adapters/storage/account"
	"ecocrew/internal/domain/account"
	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/impact"
	"ecocrew/internal/domain/operations"
	domainOutbox "ecocrew/internal/domain/outbox"
	"ecocrew/internal/domain/profile"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

var testNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// seqIDs returns a generator producing id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func notFoundErr(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, sql.ErrNoRows)
}

// --- accounts ---

type memAccountStore struct {
	byID    map[string]account.Account
	saveErr error
	saves   int
}

func newMemAccountStore(accts ...account.Account) *memAccountStore {
	s := &memAccountStore{byID: make(map[string]account.Account)}
	for _, a := range accts {
		s.byID[a.ID] = a
	}
	return s
}

func (s *memAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return account.Account{}, notFoundErr("account", id)
	}
	return a, nil
}

func (s *memAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range s.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, notFoundErr("account", email)
}

func (s *memAccountStore) Save(_ context.Context, a account.Account) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, other := range s.byID {
		if other.ID != a.ID && other.Email == a.Email {
			return accountStore.ErrEmailTaken
		}
	}
	s.byID[a.ID] = a
	s.saves++
	return nil
}

func (s *memAccountStore) Count(_ context.Context) (int, error) {
	return len(s.byID), nil
}

type memProfileStore struct {
	saved []profile.Profile
}

func (s *memProfileStore) Save(_ context.Context, p profile.Profile) error {
	s.saved = append(s.saved, p)
	return nil
}

// --- servers ---

type memServerStore struct {
	byID map[string]serverprofile.Profile
}

func newMemServerStore(servers ...serverprofile.Profile) *memServerStore {
	s := &memServerStore{byID: make(map[string]serverprofile.Profile)}
	for _, p := range servers {
		s.byID[p.ID] = p
	}
	return s
}

func (s *memServerStore) GetByID(_ context.Context, id string) (serverprofile.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return serverprofile.Profile{}, notFoundErr("server", id)
	}
	return p, nil
}

func (s *memServerStore) GetByAccountID(_ context.Context, accountID string) (serverprofile.Profile, error) {
	for _, p := range s.byID {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	return serverprofile.Profile{}, notFoundErr("server for account", accountID)
}

func (s *memServerStore) Save(_ context.Context, p serverprofile.Profile) error {
	s.byID[p.ID] = p
	return nil
}

// --- events ---

type memEventStore struct {
	events map[string]event.Event
	regs   map[string]map[string]bool // event -> participant
}

func newMemEventStore(events ...event.Event) *memEventStore {
	s := &memEventStore{events: make(map[string]event.Event), regs: make(map[string]map[string]bool)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return event.Event{}, notFoundErr("event", id)
	}
	return e, nil
}

func (s *memEventStore) Save(_ context.Context, e event.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *memEventStore) Register(_ context.Context, reg event.Registration, capacity int) error {
	set := s.regs[reg.EventID]
	if set == nil {
		set = make(map[string]bool)
		s.regs[reg.EventID] = set
	}
	if set[reg.ParticipantID] {
		return event.ErrAlreadyRegistered
	}
	if capacity > 0 && len(set) >= capacity {
		return event.ErrEventFull
	}
	set[reg.ParticipantID] = true
	return nil
}

func (s *memEventStore) Unregister(_ context.Context, eventID, participantID string) error {
	if !s.regs[eventID][participantID] {
		return event.ErrNotRegistered
	}
	delete(s.regs[eventID], participantID)
	return nil
}

func (s *memEventStore) IsRegistered(_ context.Context, eventID, participantID string) (bool, error) {
	return s.regs[eventID][participantID], nil
}

func (s *memEventStore) CountRegistrations(_ context.Context, eventID string) (int, error) {
	return len(s.regs[eventID]), nil
}

type memImpactStore struct {
	saved []impact.Log
}

func (s *memImpactStore) Save(_ context.Context, l impact.Log) error {
	s.saved = append(s.saved, l)
	return nil
}

// --- certificates and sharing ---

type memCertStore struct {
	byID map[string]certification.Certificate
}

func newMemCertStore(certs ...certification.Certificate) *memCertStore {
	s := &memCertStore{byID: make(map[string]certification.Certificate)}
	for _, c := range certs {
		s.byID[c.ID] = c
	}
	return s
}

func (s *memCertStore) GetByID(_ context.Context, id string) (certification.Certificate, error) {
	c, ok := s.byID[id]
	if !ok {
		return certification.Certificate{}, notFoundErr("certificate", id)
	}
	return c, nil
}

func (s *memCertStore) Save(_ context.Context, c certification.Certificate) error {
	s.byID[c.ID] = c
	return nil
}

// memSharingStore mirrors the SQLite store: version-guarded updates, one open
// request per (certificate, server), and certificate activation on ApplyReview.
type memSharingStore struct {
	byID    map[string]sharing.Request
	certs   *memCertStore
	onWrite func(id string) // runs once before the next version check
}

func newMemSharingStore(certs *memCertStore, reqs ...sharing.Request) *memSharingStore {
	s := &memSharingStore{byID: make(map[string]sharing.Request), certs: certs}
	for _, r := range reqs {
		s.byID[r.ID] = r
	}
	return s
}

func (s *memSharingStore) GetByID(_ context.Context, id string) (sharing.Request, error) {
	r, ok := s.byID[id]
	if !ok {
		return sharing.Request{}, notFoundErr("sharing request", id)
	}
	return r, nil
}

func (s *memSharingStore) Create(_ context.Context, r sharing.Request) error {
	for _, other := range s.byID {
		if other.CertificateID == r.CertificateID && other.ServerID == r.ServerID && other.IsOpen() {
			return sharing.ErrDuplicateOpen
		}
	}
	s.byID[r.ID] = r
	return nil
}

func (s *memSharingStore) Update(_ context.Context, r sharing.Request) error {
	stored, ok := s.byID[r.ID]
	if !ok {
		return notFoundErr("sharing request", r.ID)
	}
	if hook := s.onWrite; hook != nil {
		s.onWrite = nil
		hook(r.ID)
		stored = s.byID[r.ID]
	}
	if stored.Version != r.Version {
		return sharing.ErrConflict
	}
	r.Version++
	s.byID[r.ID] = r
	return nil
}

func (s *memSharingStore) ApplyReview(ctx context.Context, r sharing.Request, activate bool, now time.Time) error {
	if err := s.Update(ctx, r); err != nil {
		return err
	}
	if activate {
		c := s.certs.byID[r.CertificateID]
		if err := c.Activate(now); err != nil {
			return err
		}
		s.certs.byID[c.ID] = c
	}
	return nil
}

func (s *memSharingStore) ApplyResubmit(ctx context.Context, r sharing.Request, fileRef string, now time.Time) error {
	c := s.certs.byID[r.CertificateID]
	if fileRef != "" {
		if err := c.ReplaceFile(fileRef, now); err != nil {
			return err
		}
	}
	if err := s.Update(ctx, r); err != nil {
		return err
	}
	s.certs.byID[c.ID] = c
	return nil
}

// bump simulates a concurrent writer advancing the stored version.
func (s *memSharingStore) bump(id string) {
	r := s.byID[id]
	r.Version++
	s.byID[id] = r
}

// --- outbox and audit ---

type memOutboxStore struct {
	mu      sync.Mutex
	entries map[string]domainOutbox.Entry
	order   []string
	saveErr error
}

func newMemOutboxStore() *memOutboxStore {
	return &memOutboxStore{entries: make(map[string]domainOutbox.Entry)}
}

func (s *memOutboxStore) Save(_ context.Context, e domainOutbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.entries[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = e
	return nil
}

func (s *memOutboxStore) GetByID(_ context.Context, id string) (domainOutbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return domainOutbox.Entry{}, notFoundErr("outbox entry", id)
	}
	return e, nil
}

func (s *memOutboxStore) ListDue(_ context.Context, now time.Time, limit int) ([]domainOutbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domainOutbox.Entry
	for _, id := range s.order {
		e := s.entries[id]
		if e.IsDue(now) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// byType returns saved entries of one action type in insertion order.
func (s *memOutboxStore) byType(actionType string) []domainOutbox.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domainOutbox.Entry
	for _, id := range s.order {
		if e := s.entries[id]; e.ActionType == actionType {
			out = append(out, e)
		}
	}
	return out
}

func (s *memOutboxStore) doneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == domainOutbox.StatusDone {
			n++
		}
	}
	return n
}

type memAuditStore struct {
	events []domainAudit.Event
	err    error
}

func (s *memAuditStore) Save(_ context.Context, e domainAudit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memAuditStore) last() domainAudit.Event {
	if len(s.events) == 0 {
		return domainAudit.Event{}
	}
	return s.events[len(s.events)-1]
}

// --- operations ---

type memOpsStore struct {
	tasks      map[string]operations.Task
	equipment  map[string]operations.Equipment
	compliance map[string]operations.ComplianceRecord
	finances   map[string]operations.FinanceEntry
}

func newMemOpsStore() *memOpsStore {
	return &memOpsStore{
		tasks:      make(map[string]operations.Task),
		equipment:  make(map[string]operations.Equipment),
		compliance: make(map[string]operations.ComplianceRecord),
		finances:   make(map[string]operations.FinanceEntry),
	}
}

func (s *memOpsStore) SaveTask(_ context.Context, t operations.Task) error {
	s.tasks[t.ID] = t
	return nil
}

func (s *memOpsStore) GetTask(_ context.Context, serverID, id string) (operations.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.ServerID != serverID {
		return operations.Task{}, notFoundErr("task", id)
	}
	return t, nil
}

func (s *memOpsStore) DeleteTask(_ context.Context, serverID, id string) error {
	if t, ok := s.tasks[id]; !ok || t.ServerID != serverID {
		return notFoundErr("task", id)
	}
	delete(s.tasks, id)
	return nil
}

func (s *memOpsStore) SaveEquipment(_ context.Context, e operations.Equipment) error {
	s.equipment[e.ID] = e
	return nil
}

func (s *memOpsStore) ListEquipment(_ context.Context, serverID string) ([]operations.Equipment, error) {
	return listScoped(s.equipment, func(e operations.Equipment) string { return e.ServerID }, serverID), nil
}

func (s *memOpsStore) DeleteEquipment(_ context.Context, serverID, id string) error {
	if e, ok := s.equipment[id]; !ok || e.ServerID != serverID {
		return notFoundErr("equipment", id)
	}
	delete(s.equipment, id)
	return nil
}

func (s *memOpsStore) SaveCompliance(_ context.Context, c operations.ComplianceRecord) error {
	s.compliance[c.ID] = c
	return nil
}

func (s *memOpsStore) ListCompliance(_ context.Context, serverID string) ([]operations.ComplianceRecord, error) {
	return listScoped(s.compliance, func(c operations.ComplianceRecord) string { return c.ServerID }, serverID), nil
}

func (s *memOpsStore) DeleteCompliance(_ context.Context, serverID, id string) error {
	if c, ok := s.compliance[id]; !ok || c.ServerID != serverID {
		return notFoundErr("compliance record", id)
	}
	delete(s.compliance, id)
	return nil
}

func (s *memOpsStore) SaveFinance(_ context.Context, f operations.FinanceEntry) error {
	s.finances[f.ID] = f
	return nil
}

func (s *memOpsStore) ListFinances(_ context.Context, serverID string) ([]operations.FinanceEntry, error) {
	return listScoped(s.finances, func(f operations.FinanceEntry) string { return f.ServerID }, serverID), nil
}

func (s *memOpsStore) DeleteFinance(_ context.Context, serverID, id string) error {
	if f, ok := s.finances[id]; !ok || f.ServerID != serverID {
		return notFoundErr("finance entry", id)
	}
	delete(s.finances, id)
	return nil
}

func listScoped[T any](m map[string]T, server func(T) string, serverID string) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []T
	for _, k := range keys {
		if server(m[k]) == serverID {
			out = append(out, m[k])
		}
	}
	return out
}

var errBoom = errors.New("boom")
