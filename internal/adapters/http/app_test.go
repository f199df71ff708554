package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecocrew/internal/adapters/email"
	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/adapters/http/perf"
	"ecocrew/internal/adapters/sns"
	accountStore "ecocrew/internal/adapters/storage/account"
	auditStore "ecocrew/internal/adapters/storage/audit"
	certificationStore "ecocrew/internal/adapters/storage/certification"
	eventStore "ecocrew/internal/adapters/storage/event"
	impactStore "ecocrew/internal/adapters/storage/impact"
	operationsStore "ecocrew/internal/adapters/storage/operations"
	outboxStore "ecocrew/internal/adapters/storage/outbox"
	profileStore "ecocrew/internal/adapters/storage/profile"
	serverStore "ecocrew/internal/adapters/storage/serverprofile"
	sharingStore "ecocrew/internal/adapters/storage/sharing"
	"ecocrew/internal/adapters/storage/storagetest"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/account"
	domainOutbox "ecocrew/internal/domain/outbox"
)

const testPassword = "correct horse battery"

// testApp is the full handler stack over a migrated in-memory database.
type testApp struct {
	t         *testing.T
	handler   http.Handler
	stores    *Stores
	sender    *email.NoopSender
	publisher *sns.LogPublisher
	processor *orchestrators.OutboxProcessor
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := storagetest.OpenDB(t)
	s := &Stores{
		DB:               db,
		AccountStore:     accountStore.NewSQLiteStore(db),
		ProfileStore:     profileStore.NewSQLiteStore(db),
		ServerStore:      serverStore.NewSQLiteStore(db),
		EventStore:       eventStore.NewSQLiteStore(db),
		ImpactStore:      impactStore.NewSQLiteStore(db),
		CertificateStore: certificationStore.NewSQLiteStore(db),
		SharingStore:     sharingStore.NewSQLiteStore(db),
		OperationsStore:  operationsStore.NewSQLiteStore(db),
		OutboxStore:      outboxStore.NewSQLiteStore(db),
		AuditStore:       auditStore.NewSQLiteStore(db),
	}
	sender := email.NewNoopSender()
	publisher := sns.NewLogPublisher()
	processor := orchestrators.NewOutboxProcessor(s.OutboxStore, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender},
		domainOutbox.ActionTypeSNS:   &orchestrators.SNSExecutor{Publisher: publisher},
	}, nil)

	h := NewMux(s, Options{
		CSRFKey:   bytes.Repeat([]byte("k"), 32),
		RateLimit: 10000,
		Collector: perf.NewCollector(256),
		Outbox:    processor,
	})
	return &testApp{t: t, handler: h, stores: s, sender: sender, publisher: publisher, processor: processor}
}

// do sends a JSON request, with the session cookie when one is given.
func (a *testApp) do(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// expect fails the test unless rec has the wanted status.
func expect(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (a *testApp) login(emailAddr, password string) *http.Cookie {
	a.t.Helper()
	rec := a.do("POST", "/api/login", map[string]string{"email": emailAddr, "password": password}, nil)
	expect(a.t, rec, http.StatusOK)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	a.t.Fatal("login did not set a session cookie")
	return nil
}

// participant registers a participant and returns a logged-in session.
func (a *testApp) participant(emailAddr, displayName string) *http.Cookie {
	a.t.Helper()
	rec := a.do("POST", "/api/register/participant", map[string]string{
		"email": emailAddr, "password": testPassword, "display_name": displayName,
	}, nil)
	expect(a.t, rec, http.StatusCreated)
	return a.login(emailAddr, testPassword)
}

// admin stores an admin account and returns a logged-in session.
func (a *testApp) admin() *http.Cookie {
	a.t.Helper()
	acct := account.Account{ID: generateID(), Email: "admin@ecocrew.local", Role: account.RoleAdmin, CreatedAt: timeNow()}
	if err := acct.SetPassword(testPassword); err != nil {
		a.t.Fatalf("set password: %v", err)
	}
	if err := a.stores.AccountStore.Save(context.Background(), acct); err != nil {
		a.t.Fatalf("save admin: %v", err)
	}
	return a.login(acct.Email, testPassword)
}

// activeServer registers a server, has admin approve it, and returns the
// server's session and profile ID.
func (a *testApp) activeServer(admin *http.Cookie, emailAddr, org string) (*http.Cookie, string) {
	a.t.Helper()
	rec := a.do("POST", "/api/register/server", map[string]string{
		"email": emailAddr, "password": testPassword, "organization_name": org,
	}, nil)
	expect(a.t, rec, http.StatusCreated)

	rec = a.do("GET", "/api/servers", nil, admin)
	expect(a.t, rec, http.StatusOK)
	serverID := ""
	for _, s := range decode[[]projections.ServerView](a.t, rec) {
		if s.OrganizationName == org {
			serverID = s.ID
		}
	}
	if serverID == "" {
		a.t.Fatalf("server %q not listed for admin", org)
	}
	expect(a.t, a.do("POST", "/api/admin/servers/"+serverID+"/active", map[string]bool{"active": true}, admin), http.StatusOK)
	return a.login(emailAddr, testPassword), serverID
}
