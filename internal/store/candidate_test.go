package store

import (
	"context"
	"testing"
)

func TestCandidateCreateAndGet(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewCandidateStore(db)

	c, err := store.Create(context.Background(), "Taro Yamada", "Backend engineer", "8 years of Go and distributed systems", "taro@example.com", "090-0000-0000")
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	if c.Status != "active" {
		t.Errorf("status = %q, want active", c.Status)
	}
	if c.ContactEmail != "taro@example.com" {
		t.Errorf("contact_email = %q", c.ContactEmail)
	}

	got, err := store.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get candidate: %v", err)
	}
	if got == nil || got.Name != "Taro Yamada" {
		t.Errorf("get by id = %+v", got)
	}
}

func TestCandidateMasked(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewCandidateStore(db)

	c, err := store.Create(context.Background(), "Taro Yamada", "Backend engineer", "", "taro@example.com", "090-0000-0000")
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	masked := c.Masked()
	if masked.ContactEmail != "" || masked.ContactPhone != "" {
		t.Errorf("masked candidate leaks contact details: %+v", masked)
	}
	if masked.Name != c.Name || masked.Headline != c.Headline {
		t.Errorf("masking must keep public fields: %+v", masked)
	}
}

func TestCandidateListActiveOnly(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewCandidateStore(db)

	ctx := context.Background()
	active, _ := store.Create(ctx, "Active", "", "", "", "")
	hired, _ := store.Create(ctx, "Hired", "", "", "", "")
	if err := store.UpdateStatus(ctx, hired.ID, "hired"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	candidates, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != active.ID {
		t.Errorf("expected only the active candidate, got %+v", candidates)
	}
}

func TestCandidateGetByIDNotFound(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewCandidateStore(db)

	got, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get candidate: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
