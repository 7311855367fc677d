package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/connectfood/internal/models"
)

func TestMemoryStoreListingNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.ListingByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreAccountByEmailCaseInsensitive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.CreateAccount(ctx, &models.Account{Email: "User@Example.org"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.AccountByEmail(ctx, "user@example.org")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Email != "User@Example.org" {
		t.Fatalf("got %q", got.Email)
	}
}

func TestMemoryStoreActiveRecipients(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.CreateAccount(ctx, &models.Account{Role: models.RoleRecipient, Active: true})
	s.CreateAccount(ctx, &models.Account{Role: models.RoleRecipient, Active: false})
	s.CreateAccount(ctx, &models.Account{Role: models.RoleDonor, Active: true})

	got, err := s.ActiveRecipients(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("recipients = %d, want 1", len(got))
	}
}

func TestMemoryStoreMatchesFilterAndOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	s.CreateMatch(ctx, &models.Match{DonorID: "d1", RecipientID: "r1", CreatedAt: now.Add(-2 * time.Hour)})
	s.CreateMatch(ctx, &models.Match{DonorID: "d1", RecipientID: "r2", CreatedAt: now.Add(-1 * time.Hour)})
	s.CreateMatch(ctx, &models.Match{DonorID: "d2", RecipientID: "r3", CreatedAt: now})

	all, _ := s.Matches(ctx, "")
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("not newest-first at %d", i)
		}
	}

	d1, _ := s.Matches(ctx, "d1")
	if len(d1) != 2 {
		t.Fatalf("d1 = %d, want 2", len(d1))
	}
	r3, _ := s.Matches(ctx, "r3")
	if len(r3) != 1 {
		t.Fatalf("r3 = %d, want 1", len(r3))
	}
}

func TestMemoryStoreMessagesOldestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	s.CreateMessage(ctx, &models.Message{MatchID: "m1", Content: "second", CreatedAt: now})
	s.CreateMessage(ctx, &models.Message{MatchID: "m1", Content: "first", CreatedAt: now.Add(-time.Minute)})
	s.CreateMessage(ctx, &models.Message{MatchID: "m2", Content: "other", CreatedAt: now})

	got, err := s.MessagesByMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Fatalf("wrong order: %q then %q", got[0].Content, got[1].Content)
	}
}

func TestMemoryStoreAssignsIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	l := models.Listing{}
	id, err := s.CreateListing(ctx, &l)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" || l.ID != id {
		t.Fatalf("id not assigned: %q vs %q", id, l.ID)
	}
	if l.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}
