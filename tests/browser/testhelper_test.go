package browser_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"ecocrew/internal/adapters/email"
	web "ecocrew/internal/adapters/http"
	"ecocrew/internal/adapters/sns"
	"ecocrew/internal/adapters/storage"
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
	"ecocrew/internal/application/orchestrators"
	domainOutbox "ecocrew/internal/domain/outbox"
)

const (
	adminEmail    = "admin@test.org"
	adminPassword = "TestPass123!"
)

// testApp holds the running test server and the Playwright driver.
type testApp struct {
	BaseURL   string
	DB        *sql.DB
	PW        *playwright.Playwright
	Stores    *web.Stores
	Sender    *email.NoopSender
	Processor *orchestrators.OutboxProcessor
}

// newTestApp starts the full app on a temp SQLite file behind a real listener.
// Tests are skipped when the Playwright driver is not installed.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests skipped in -short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	stores := &web.Stores{
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

	if _, err := orchestrators.ExecuteSeedAdmin(context.Background(), orchestrators.SeedAdminInput{
		Email: adminEmail, Password: adminPassword,
	}, orchestrators.SeedAdminDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	}); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	sender := email.NewNoopSender()
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender},
		domainOutbox.ActionTypeSNS:   &orchestrators.SNSExecutor{Publisher: sns.NewLogPublisher()},
	}, nil)

	srv := httptest.NewServer(web.NewMux(stores, web.Options{
		CSRFKey:   bytes.Repeat([]byte("b"), 32),
		RateLimit: 1000,
		Outbox:    processor,
	}))

	pw, err := playwright.Run()
	if err != nil {
		srv.Close()
		db.Close()
		t.Skipf("playwright driver unavailable: %v", err)
	}

	t.Cleanup(func() {
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return &testApp{BaseURL: srv.URL, DB: db, PW: pw, Stores: stores, Sender: sender, Processor: processor}
}

// client is one actor's API session; each has its own cookie jar.
type client struct {
	t   *testing.T
	app *testApp
	api playwright.APIRequestContext
}

func (a *testApp) newClient(t *testing.T) *client {
	t.Helper()
	api, err := a.PW.Request.NewContext()
	if err != nil {
		t.Fatalf("failed to create request context: %v", err)
	}
	t.Cleanup(func() { api.Dispose() })
	return &client{t: t, app: a, api: api}
}

// post sends a JSON body and checks the status.
func (c *client) post(path string, body any, want int) []byte {
	c.t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		c.t.Fatalf("marshal body: %v", err)
	}
	resp, err := c.api.Post(c.app.BaseURL+path, playwright.APIRequestContextPostOptions{
		Data:    string(raw),
		Headers: map[string]string{"Content-Type": "application/json"},
	})
	if err != nil {
		c.t.Fatalf("POST %s failed: %v", path, err)
	}
	return c.check("POST", path, resp, want)
}

func (c *client) get(path string, want int) []byte {
	c.t.Helper()
	resp, err := c.api.Get(c.app.BaseURL + path)
	if err != nil {
		c.t.Fatalf("GET %s failed: %v", path, err)
	}
	return c.check("GET", path, resp, want)
}

func (c *client) check(method, path string, resp playwright.APIResponse, want int) []byte {
	c.t.Helper()
	body, _ := resp.Body()
	if resp.Status() != want {
		c.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, resp.Status(), body)
	}
	return body
}

// login signs the client in; the session cookie stays in its jar.
func (c *client) login(emailAddr, password string) {
	c.t.Helper()
	c.post("/api/login", map[string]string{"email": emailAddr, "password": password}, 200)
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}
