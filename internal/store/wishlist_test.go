package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/model"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *database.DB, email string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), email)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newTestWishlist(id string, owner *model.User, createdAt time.Time) *model.Wishlist {
	return &model.Wishlist{
		ID:         id,
		FamilyName: "The Smiths",
		Children:   []string{"Emma", "Liam"},
		Note:       "Be good!",
		CreatedAt:  createdAt,
		UserID:     owner.ID,
		UserEmail:  owner.Email,
	}
}

func TestWishlistCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWishlistStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")

	created := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	if err := ws.Create(ctx, newTestWishlist("wishlist_abc_1", alice, created)); err != nil {
		t.Fatalf("create wishlist: %v", err)
	}

	got, err := ws.GetByID(ctx, "wishlist_abc_1")
	if err != nil {
		t.Fatalf("get wishlist: %v", err)
	}
	if got == nil {
		t.Fatal("expected wishlist, got nil")
	}
	if got.FamilyName != "The Smiths" {
		t.Errorf("family_name = %q, want %q", got.FamilyName, "The Smiths")
	}
	if len(got.Children) != 2 || got.Children[0] != "Emma" || got.Children[1] != "Liam" {
		t.Errorf("children = %v, want [Emma Liam]", got.Children)
	}
	if got.Note != "Be good!" {
		t.Errorf("note = %q, want %q", got.Note, "Be good!")
	}
	if got.UserID != alice.ID {
		t.Errorf("user_id = %q, want %q", got.UserID, alice.ID)
	}
	if got.UserEmail != "alice@example.com" {
		t.Errorf("user_email = %q, want %q", got.UserEmail, "alice@example.com")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
	if got.ResponsesCount != 0 {
		t.Errorf("responses_count = %d, want 0", got.ResponsesCount)
	}
}

func TestWishlistGetMissing(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWishlistStore(db)

	got, err := ws.GetByID(context.Background(), "wishlist_nope")
	if err != nil {
		t.Fatalf("get wishlist: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestWishlistEmptyChildren(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWishlistStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")

	w := newTestWishlist("wishlist_empty", alice, time.Now().UTC())
	w.Children = nil
	if err := ws.Create(ctx, w); err != nil {
		t.Fatalf("create wishlist: %v", err)
	}

	got, err := ws.GetByID(ctx, "wishlist_empty")
	if err != nil {
		t.Fatalf("get wishlist: %v", err)
	}
	if got.Children == nil || len(got.Children) != 0 {
		t.Errorf("children = %#v, want empty slice", got.Children)
	}
}

func TestWishlistDuplicateID(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWishlistStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")

	now := time.Now().UTC()
	if err := ws.Create(ctx, newTestWishlist("wishlist_dup", alice, now)); err != nil {
		t.Fatalf("create wishlist: %v", err)
	}
	if err := ws.Create(ctx, newTestWishlist("wishlist_dup", alice, now)); err == nil {
		t.Error("expected error on duplicate id")
	}
}

func TestWishlistListByUser(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWishlistStore(db)
	rs := NewResponseStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	ws.Create(ctx, newTestWishlist("wishlist_a1", alice, base))
	ws.Create(ctx, newTestWishlist("wishlist_a2", alice, base.Add(time.Hour)))
	ws.Create(ctx, newTestWishlist("wishlist_b1", bob, base.Add(2*time.Hour)))

	rs.Create(ctx, &model.Response{ID: "r1", WishlistID: "wishlist_a1", ChildName: "Emma", Message: "Hi", CreatedAt: base})
	rs.Create(ctx, &model.Response{ID: "r2", WishlistID: "wishlist_a1", ChildName: "Liam", Message: "Hey", CreatedAt: base})

	list, err := ws.ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list wishlists: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != "wishlist_a2" || list[1].ID != "wishlist_a1" {
		t.Errorf("order = [%s %s], want [wishlist_a2 wishlist_a1]", list[0].ID, list[1].ID)
	}
	if list[0].ResponsesCount != 0 {
		t.Errorf("a2 responses_count = %d, want 0", list[0].ResponsesCount)
	}
	if list[1].ResponsesCount != 2 {
		t.Errorf("a1 responses_count = %d, want 2", list[1].ResponsesCount)
	}

	empty, err := ws.ListByUser(ctx, "someone-else")
	if err != nil {
		t.Fatalf("list wishlists: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestWishlistDeleteOwnedCascades(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWishlistStore(db)
	rs := NewResponseStore(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	now := time.Now().UTC()
	ws.Create(ctx, newTestWishlist("wishlist_x", alice, now))
	rs.Create(ctx, &model.Response{ID: "r1", WishlistID: "wishlist_x", ChildName: "Emma", Message: "Hi", CreatedAt: now})

	// Not the owner
	deleted, err := ws.DeleteOwned(ctx, "wishlist_x", bob.ID)
	if err != nil {
		t.Fatalf("delete wishlist: %v", err)
	}
	if deleted {
		t.Error("expected no delete for non-owner")
	}
	if got, _ := ws.GetByID(ctx, "wishlist_x"); got == nil {
		t.Fatal("wishlist should still exist")
	}

	deleted, err = ws.DeleteOwned(ctx, "wishlist_x", alice.ID)
	if err != nil {
		t.Fatalf("delete wishlist: %v", err)
	}
	if !deleted {
		t.Error("expected delete for owner")
	}

	responses, err := rs.ListByWishlist(ctx, "wishlist_x")
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 0 {
		t.Errorf("responses after delete = %d, want 0", len(responses))
	}

	deleted, err = ws.DeleteOwned(ctx, "wishlist_x", alice.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Error("second delete should report nothing removed")
	}
}
