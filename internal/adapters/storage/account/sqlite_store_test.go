package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ecocrew/internal/adapters/storage/storagetest"
	domain "ecocrew/internal/domain/account"
)

func newAccount(id, email, role string) domain.Account {
	return domain.Account{
		ID:        id,
		Email:     email,
		Role:      role,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := NewSQLiteStore(storagetest.OpenDB(t))
	ctx := context.Background()

	a := newAccount("a1", " Volunteer@Example.org ", domain.RoleParticipant)
	a.LockedUntil = time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
	a.FailedLogins = 5
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByEmail(ctx, "volunteer@example.org")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "a1" || got.Email != "volunteer@example.org" || got.FailedLogins != 5 {
		t.Errorf("unexpected account: %+v", got)
	}
	if !got.LockedUntil.Equal(a.LockedUntil) || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("times not preserved: %+v", got)
	}

	got.FailedLogins = 0
	got.LockedUntil = time.Time{}
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	again, err := store.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.FailedLogins != 0 || !again.LockedUntil.IsZero() {
		t.Errorf("update not applied: %+v", again)
	}
}

func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	store := NewSQLiteStore(storagetest.OpenDB(t))
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID() = %v, want sql.ErrNoRows", err)
	}
}

func TestSQLiteStore_Save_DuplicateEmail(t *testing.T) {
	store := NewSQLiteStore(storagetest.OpenDB(t))
	ctx := context.Background()
	if err := store.Save(ctx, newAccount("a1", "dup@example.org", domain.RoleParticipant)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	err := store.Save(ctx, newAccount("a2", "DUP@example.org", domain.RoleServer))
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Save(duplicate) = %v, want ErrEmailTaken", err)
	}
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	store := NewSQLiteStore(storagetest.OpenDB(t))
	ctx := context.Background()
	for _, a := range []domain.Account{
		newAccount("a1", "p1@example.org", domain.RoleParticipant),
		newAccount("a2", "p2@example.org", domain.RoleParticipant),
		newAccount("a3", "s1@example.org", domain.RoleServer),
	} {
		if err := store.Save(ctx, a); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
	servers, err := store.List(ctx, ListFilter{Role: domain.RoleServer})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(servers) != 1 || servers[0].ID != "a3" {
		t.Errorf("List(server) = %+v", servers)
	}
	page, err := store.List(ctx, ListFilter{Limit: 2})
	if err != nil || len(page) != 2 {
		t.Errorf("List(limit 2) = %d rows, %v", len(page), err)
	}
}
