package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ecocrew/internal/domain/account"
	domainAudit "ecocrew/internal/domain/audit"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	AccountID string
	Email     string
	Role      string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	AuditStore   AuditRecorder
	GenerateID   func() string
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns account info for session creation.
// PRE: Valid email and password provided
// POST: Returns account info on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := deps.Now()
	email := account.NormalizeEmail(input.Email)
	actor := Actor{Email: email, IPAddress: input.IPAddress, UserAgent: input.UserAgent}

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			return LoginResult{}, err
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		recordLoginFailure(ctx, deps, actor, now, "unknown email")
		return LoginResult{}, ErrInvalidCredentials
	}
	actor.AccountID, actor.Role = acct.ID, acct.Role

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		recordLoginFailure(ctx, deps, actor, now, "account locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if saveErr := deps.AccountStore.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "failed_login_save_error", "account_id", acct.ID, "error", saveErr)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		recordLoginFailure(ctx, deps, actor, now, "wrong password")
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return LoginResult{}, err
		}
	}

	slog.Info("auth_event", "event", "login_success", "account_id", acct.ID, "role", acct.Role)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, actor, domainAudit.CategoryAccount, domainAudit.ActionLogin).
			WithResource("account", acct.ID).
			WithDescription("login succeeded"))

	return LoginResult{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      acct.Role,
	}, nil
}

func recordLoginFailure(ctx context.Context, deps LoginDeps, actor Actor, now time.Time, reason string) {
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), now, actor, domainAudit.CategoryAccount, domainAudit.ActionLogin).
			WithSeverity(domainAudit.SeverityWarning).
			WithResource("account", actor.AccountID).
			WithDescription("login failed: "+reason))
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	AuditStore AuditRecorder
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteLogout records the end of a session. Session removal is the caller's job.
func ExecuteLogout(ctx context.Context, actor Actor, deps LogoutDeps) {
	slog.Info("auth_event", "event", "logout", "account_id", actor.AccountID)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), deps.Now(), actor, domainAudit.CategoryAccount, domainAudit.ActionLogout).
			WithResource("account", actor.AccountID))
}

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, a account.Account) error
}

// SeedAdminInput carries the bootstrap admin credentials.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSeedAdmin creates the first admin account on an empty database.
// POST: returns true when an account was created; existing accounts are left alone
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	n, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     account.NormalizeEmail(input.Email),
		Role:      account.RoleAdmin,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return false, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return false, err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", acct.Email)
	return true, nil
}
