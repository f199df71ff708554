package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"ecocrew/internal/adapters/email"
	web "ecocrew/internal/adapters/http"
	"ecocrew/internal/adapters/http/perf"
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
	"ecocrew/internal/config"
	domainOutbox "ecocrew/internal/domain/outbox"

	"github.com/google/uuid"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("ECOCREW_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(cfg.Logger())

	// WAL, busy timeout and foreign keys on every pooled connection
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, time.Duration(cfg.SlowQueryMs)*time.Millisecond)

	stores := &web.Stores{
		DB:               timedDB,
		AccountStore:     accountStore.NewSQLiteStore(timedDB),
		ProfileStore:     profileStore.NewSQLiteStore(timedDB),
		ServerStore:      serverStore.NewSQLiteStore(timedDB),
		EventStore:       eventStore.NewSQLiteStore(timedDB),
		ImpactStore:      impactStore.NewSQLiteStore(timedDB),
		CertificateStore: certificationStore.NewSQLiteStore(timedDB),
		SharingStore:     sharingStore.NewSQLiteStore(timedDB),
		OperationsStore:  operationsStore.NewSQLiteStore(timedDB),
		OutboxStore:      outboxStore.NewSQLiteStore(timedDB),
		AuditStore:       auditStore.NewSQLiteStore(timedDB),
	}

	ctx := context.Background()
	seeded, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, orchestrators.SeedAdminDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded && cfg.AdminPassword == config.DefaultAdminPassword {
		slog.Warn("admin_default_password", "email", cfg.AdminEmail)
	}

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender_disabled", "reason", "resend_key not set")
		}
	}

	var publisher sns.Publisher
	if cfg.SNSTopicARN != "" {
		topic, err := sns.NewTopicPublisher(ctx, cfg.SNSTopicARN)
		if err != nil {
			return fmt.Errorf("sns publisher: %w", err)
		}
		publisher = topic
		slog.Info("sns_publisher_configured", "topic", cfg.SNSTopicARN)
	} else {
		publisher = sns.NewLogPublisher()
	}

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender},
		domainOutbox.ActionTypeSNS:   &orchestrators.SNSExecutor{Publisher: publisher},
	}, nil)
	stopOutbox := make(chan struct{})
	outboxDone := orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, stopOutbox)

	handler := web.NewMux(stores, web.Options{
		CSRFKey:        cfg.CSRFKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		RateLimit:      cfg.RateLimit,
		SessionTTL:     cfg.SessionTTL,
		SlowRequest:    time.Duration(cfg.SlowRequestMs) * time.Millisecond,
		Collector:      collector,
		Outbox:         processor,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		serveErr <- srv.ListenAndServe()
	}()

	sig, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		close(stopOutbox)
		outboxDone.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-sig.Done():
	}

	slog.Info("server_shutting_down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	close(stopOutbox)
	outboxDone.Wait()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_stopped")
	return nil
}
