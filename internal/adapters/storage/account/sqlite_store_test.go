package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"seacomms/internal/adapters/storage"
	domain "seacomms/internal/domain/account"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndGet verifies round trips by id and email.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	acct := domain.Account{ID: "u1", Email: "a@x.com", PasswordHash: "hash", CreatedAt: created}
	if err := store.Save(ctx, acct); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "u1" || !got.CreatedAt.Equal(created) || !got.LockedUntil.IsZero() || got.Status != domain.StatusActive {
		t.Errorf("unexpected account: %+v", got)
	}

	byID, err := store.GetByID(ctx, "u1")
	if err != nil || byID.Email != "a@x.com" {
		t.Errorf("GetByID = %+v, %v", byID, err)
	}
}

// TestSQLiteStore_SaveUpdatesLockout verifies Save updates an existing row in place.
func TestSQLiteStore_SaveUpdatesLockout(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	acct := domain.Account{ID: "u1", Email: "a@x.com", PasswordHash: "hash", CreatedAt: time.Now()}
	store.Save(ctx, acct)

	acct.FailedLogins = 5
	acct.LockedUntil = time.Now().Add(time.Hour)
	if err := store.Save(ctx, acct); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := store.GetByID(ctx, "u1")
	if got.FailedLogins != 5 || !got.IsLocked() {
		t.Errorf("expected locked account, got %+v", got)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

// TestSQLiteStore_DuplicateEmail verifies the email column is unique.
func TestSQLiteStore_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, domain.Account{ID: "u1", Email: "a@x.com", CreatedAt: time.Now()})
	if err := store.Save(ctx, domain.Account{ID: "u2", Email: "a@x.com", CreatedAt: time.Now()}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("expected storage.ErrDuplicate, got %v", err)
	}
}

// TestSQLiteStore_NotFound verifies missing accounts wrap sql.ErrNoRows.
func TestSQLiteStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByEmail(context.Background(), "nobody@x.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func pendingAccount(id, email string, created time.Time) domain.Account {
	return domain.Account{ID: id, Email: email, PasswordHash: "hash", Status: domain.StatusPendingActivation, CreatedAt: created}
}

// TestSQLiteStore_SavePendingAndActivate verifies a pending account activates once.
func TestSQLiteStore_SavePendingAndActivate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	acct := pendingAccount("u1", "a@x.com", now)
	tok := domain.NewActivationToken("t1", "u1", "secret-1", now)
	if err := store.SavePending(ctx, acct, tok); err != nil {
		t.Fatalf("SavePending: %v", err)
	}

	got, err := store.GetActivationTokenByToken(ctx, "secret-1")
	if err != nil {
		t.Fatalf("GetActivationTokenByToken: %v", err)
	}
	if got.AccountID != "u1" || got.Used || !got.ExpiresAt.Equal(now.Add(domain.ActivationTTL)) {
		t.Errorf("unexpected token: %+v", got)
	}
	stored, _ := store.GetByEmail(ctx, "a@x.com")
	if !stored.IsPendingActivation() {
		t.Errorf("expected pending account, got %+v", stored)
	}

	stored.Activate()
	if err := store.CompleteActivation(ctx, stored, got); err != nil {
		t.Fatalf("CompleteActivation: %v", err)
	}
	if err := store.CompleteActivation(ctx, stored, got); !errors.Is(err, domain.ErrTokenUsed) {
		t.Errorf("second activation = %v, want ErrTokenUsed", err)
	}

	active, _ := store.GetByID(ctx, "u1")
	if active.Status != domain.StatusActive {
		t.Errorf("Status = %q, want active", active.Status)
	}
	used, _ := store.GetActivationTokenByToken(ctx, "secret-1")
	if !used.Used {
		t.Error("expected token to be used")
	}
}

// TestSQLiteStore_SavePendingReclaim verifies a pending row is replaced and its old tokens retired.
func TestSQLiteStore_SavePendingReclaim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(72 * time.Hour)

	store.SavePending(ctx, pendingAccount("u1", "a@x.com", first), domain.NewActivationToken("t1", "u1", "old", first))
	reclaimed := pendingAccount("u1", "a@x.com", later)
	reclaimed.PasswordHash = "new-hash"
	if err := store.SavePending(ctx, reclaimed, domain.NewActivationToken("t2", "u1", "new", later)); err != nil {
		t.Fatalf("SavePending reclaim: %v", err)
	}

	got, _ := store.GetByID(ctx, "u1")
	if got.PasswordHash != "new-hash" || !got.CreatedAt.Equal(later) {
		t.Errorf("expected reclaimed row, got %+v", got)
	}
	old, _ := store.GetActivationTokenByToken(ctx, "old")
	if !old.Used {
		t.Error("expected old token to be retired")
	}
}

// TestSQLiteStore_SavePendingDuplicate verifies active accounts are never overwritten.
func TestSQLiteStore_SavePendingDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	store.Save(ctx, domain.Account{ID: "u1", Email: "a@x.com", PasswordHash: "owner", Status: domain.StatusActive, CreatedAt: now})

	err := store.SavePending(ctx, pendingAccount("u2", "a@x.com", now), domain.NewActivationToken("t1", "u2", "s1", now))
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("email clash = %v, want storage.ErrDuplicate", err)
	}
	err = store.SavePending(ctx, pendingAccount("u1", "a@x.com", now), domain.NewActivationToken("t2", "u1", "s2", now))
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("active id clash = %v, want storage.ErrDuplicate", err)
	}

	got, _ := store.GetByID(ctx, "u1")
	if got.PasswordHash != "owner" || got.Status != domain.StatusActive {
		t.Errorf("active account was modified: %+v", got)
	}
	if _, err := store.GetActivationTokenByToken(ctx, "s2"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected rolled back token, got %v", err)
	}
}
