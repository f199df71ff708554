package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/adapters/http/perf"
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
)

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Stores holds all storage dependencies.
type Stores struct {
	DB               Pinger
	AccountStore     accountStore.Store
	ProfileStore     profileStore.Store
	ServerStore      serverStore.Store
	EventStore       eventStore.Store
	ImpactStore      impactStore.Store
	CertificateStore certificationStore.Store
	SharingStore     sharingStore.Store
	OperationsStore  operationsStore.Store
	OutboxStore      outboxStore.Store
	AuditStore       auditStore.Store
}

// Options configures the middleware stack and the background collaborators
// the handlers reach.
type Options struct {
	CSRFKey        []byte // 32 bytes; a random key is generated when empty
	SecureCookies  bool
	TrustedOrigins []string
	RateLimit      int // requests per second per IP; 0 uses DefaultRateLimit
	SessionTTL     time.Duration
	SlowRequest    time.Duration
	Collector      *perf.Collector
	Outbox         *orchestrators.OutboxProcessor // nil disables the admin retry endpoint
}

// DefaultRateLimit is the per-IP request budget per second.
const DefaultRateLimit = 10

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global outbox processor (set by NewMux)
var outboxProcessor *orchestrators.OutboxProcessor

var secureCookies bool

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	perfCollector = opts.Collector
	outboxProcessor = opts.Outbox
	secureCookies = opts.SecureCookies
	sessions = middleware.NewSessionStore(opts.SessionTTL)

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := opts.CSRFKey
	if len(csrfKey) == 0 {
		csrfKey = randomCSRFKey()
	}

	rate := opts.RateLimit
	if rate <= 0 {
		rate = DefaultRateLimit
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Timing stays innermost so it sees the matched route pattern.
	return middleware.Chain(mux,
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequest),
	)
}

// randomCSRFKey is used outside production when no key is configured.
// Form tokens issued with it do not survive a restart.
func randomCSRFKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("generate csrf key: " + err.Error())
	}
	slog.Warn("csrf_random_key", "hint", "set ECOCREW_CSRF_KEY to keep form tokens valid across restarts")
	return key
}
