package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	accountStore "ecocrew/internal/adapters/storage/account"
	"ecocrew/internal/domain/account"
	"ecocrew/internal/domain/profile"
	"ecocrew/internal/domain/serverprofile"
)

// AccountStoreForCreate defines the store interface needed to create accounts.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ProfileStoreForCreate persists participant profiles.
type ProfileStoreForCreate interface {
	Save(ctx context.Context, p profile.Profile) error
}

// ServerStoreForCreate persists server profiles.
type ServerStoreForCreate interface {
	Save(ctx context.Context, p serverprofile.Profile) error
}

// RegisterParticipantInput carries input for participant self-registration.
type RegisterParticipantInput struct {
	Email       string
	Password    string
	DisplayName string
	Location    string
}

// RegisterParticipantDeps holds dependencies for RegisterParticipant.
type RegisterParticipantDeps struct {
	AccountStore AccountStoreForCreate
	ProfileStore ProfileStoreForCreate
	GenerateID   func() string
	Now          func() time.Time
}

// RegisterServerInput carries input for server self-registration.
type RegisterServerInput struct {
	Email            string
	Password         string
	OrganizationName string
	ContactEmail     string
	Description      string
}

// RegisterServerDeps holds dependencies for RegisterServer.
type RegisterServerDeps struct {
	AccountStore AccountStoreForCreate
	ServerStore  ServerStoreForCreate
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteRegisterParticipant creates a participant account and its profile.
// PRE: email unused, password >= 12 chars, non-empty display name
// POST: account (role participant) and profile persisted
func ExecuteRegisterParticipant(ctx context.Context, input RegisterParticipantInput, deps RegisterParticipantDeps) (account.Account, error) {
	now := deps.Now()
	prof := profile.Profile{
		ID:          deps.GenerateID(),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Location:    strings.TrimSpace(input.Location),
		CreatedAt:   now,
	}

	acct, err := newAccount(ctx, deps.AccountStore, deps.GenerateID(), input.Email, input.Password, account.RoleParticipant, now)
	if err != nil {
		return account.Account{}, err
	}
	prof.AccountID = acct.ID
	if err := prof.Validate(); err != nil {
		return account.Account{}, err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	if err := deps.ProfileStore.Save(ctx, prof); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}

// ExecuteRegisterServer creates a server account and an inactive server profile.
// PRE: email unused, password >= 12 chars, non-empty organization name
// POST: account (role server) and inactive profile persisted; an admin must activate it
func ExecuteRegisterServer(ctx context.Context, input RegisterServerInput, deps RegisterServerDeps) (account.Account, error) {
	now := deps.Now()
	srv := serverprofile.Profile{
		ID:               deps.GenerateID(),
		OrganizationName: strings.TrimSpace(input.OrganizationName),
		ContactEmail:     account.NormalizeEmail(input.ContactEmail),
		Description:      strings.TrimSpace(input.Description),
		Active:           false,
		CreatedAt:        now,
	}

	acct, err := newAccount(ctx, deps.AccountStore, deps.GenerateID(), input.Email, input.Password, account.RoleServer, now)
	if err != nil {
		return account.Account{}, err
	}
	srv.AccountID = acct.ID
	if srv.ContactEmail == "" {
		srv.ContactEmail = acct.Email
	}
	if err := srv.Validate(); err != nil {
		return account.Account{}, err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	if err := deps.ServerStore.Save(ctx, srv); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID, "role", acct.Role, "server_id", srv.ID)
	return acct, nil
}

// newAccount validates and hashes a new account without saving it.
// POST: an email already in use yields accountStore.ErrEmailTaken
func newAccount(ctx context.Context, store AccountStoreForCreate, id, email, password, role string, now time.Time) (account.Account, error) {
	acct := account.Account{
		ID:        id,
		Email:     account.NormalizeEmail(email),
		Role:      role,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}

	if _, err := store.GetByEmail(ctx, acct.Email); err == nil {
		return account.Account{}, accountStore.ErrEmailTaken
	} else if !isNotFound(err) {
		return account.Account{}, err
	}

	if err := acct.SetPassword(password); err != nil {
		return account.Account{}, err
	}
	return acct, nil
}
