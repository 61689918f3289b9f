package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/scoutpoint/scoutpoint/internal/database"
)

func setupStoreTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// In-memory sqlite gives every pool connection its own database; pin the
	// pool to one connection so all queries see the same data.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAccountCreateAndGet(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewAccountStore(db)

	a, err := store.Create(context.Background(), "alice@example.com", "Acme Recruiting")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if a.Email != "alice@example.com" || a.CompanyName != "Acme Recruiting" {
		t.Errorf("unexpected account: %+v", a)
	}

	got, err := store.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got == nil || got.Email != a.Email {
		t.Errorf("get by id = %+v, want %+v", got, a)
	}
}

func TestAccountGetByEmail(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewAccountStore(db)

	if _, err := store.Create(context.Background(), "alice@example.com", "Acme"); err != nil {
		t.Fatalf("create account: %v", err)
	}

	got, err := store.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil {
		t.Fatal("expected account")
	}

	missing, err := store.GetByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing account, got %+v", missing)
	}
}

func TestAccountGetByIDNotFound(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewAccountStore(db)

	got, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestAccountDuplicateEmail(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewAccountStore(db)

	if _, err := store.Create(context.Background(), "alice@example.com", "Acme"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := store.Create(context.Background(), "alice@example.com", "Other"); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestAccountList(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewAccountStore(db)

	ctx := context.Background()
	store.Create(ctx, "a@example.com", "A")
	store.Create(ctx, "b@example.com", "B")

	accounts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Email != "a@example.com" {
		t.Errorf("expected id order, got %q first", accounts[0].Email)
	}
}
