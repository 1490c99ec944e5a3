package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/tradecircle/internal/apperror"
	"github.com/sakif/tradecircle/internal/model"
)

func createTestListing(t *testing.T, db *DB, ownerID int64, title, description string) *model.Listing {
	t.Helper()
	listing := &model.Listing{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Price:       10,
	}
	if err := db.CreateListing(context.Background(), listing); err != nil {
		t.Fatalf("failed to create test listing: %v", err)
	}
	return listing
}

func TestCreateListing(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")

	listing := &model.Listing{
		UserID:      owner.ID,
		Title:       "Bike",
		Description: "Old bike",
	}
	if err := db.CreateListing(context.Background(), listing); err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}

	if listing.ID == 0 {
		t.Error("CreateListing() did not set listing.ID")
	}
	if listing.CreatedAt.IsZero() {
		t.Error("CreateListing() did not set listing.CreatedAt")
	}
}

func TestCreateListing_NoImageStoredAsNull(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")
	created := createTestListing(t, db, owner.ID, "Bike", "Old bike")

	found, err := db.GetListing(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if found.Image != "" {
		t.Errorf("Image = %q, want empty", found.Image)
	}
}

func TestGetListing_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetListing(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetListing() error = %v, want ErrNotFound", err)
	}
}

func TestListRecent_NewestFirstAndCapped(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")

	for _, title := range []string{"first", "second", "third"} {
		createTestListing(t, db, owner.ID, title, "desc")
		time.Sleep(2 * time.Millisecond) // distinct created_at
	}

	listings, err := db.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("ListRecent() returned %d listings, want 2", len(listings))
	}
	if listings[0].Title != "third" || listings[1].Title != "second" {
		t.Errorf("ListRecent() order = [%s, %s], want [third, second]",
			listings[0].Title, listings[1].Title)
	}
}

func TestSearchListings_MatchesTitleOrDescription(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")
	createTestListing(t, db, owner.ID, "Mountain bike", "barely used")
	createTestListing(t, db, owner.ID, "Lamp", "bike-shaped base")
	createTestListing(t, db, owner.ID, "Chair", "wooden")

	listings, err := db.SearchListings(context.Background(), "bike", 100)
	if err != nil {
		t.Fatalf("SearchListings() error = %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("SearchListings() returned %d listings, want 2", len(listings))
	}
}

func TestSearchListings_WildcardIsLiteral(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")
	createTestListing(t, db, owner.ID, "50% off sofa", "great deal")
	createTestListing(t, db, owner.ID, "Table", "sturdy")
	createTestListing(t, db, owner.ID, "Desk", "oak")

	// "%" must not act as a match-everything wildcard.
	listings, err := db.SearchListings(context.Background(), "%", 100)
	if err != nil {
		t.Fatalf("SearchListings() error = %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("SearchListings(%%) returned %d listings, want 1", len(listings))
	}
	if listings[0].Title != "50% off sofa" {
		t.Errorf("SearchListings(%%) matched %q", listings[0].Title)
	}

	// Same for underscore.
	listings, err = db.SearchListings(context.Background(), "_", 100)
	if err != nil {
		t.Fatalf("SearchListings(_) error = %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("SearchListings(_) returned %d listings, want 0", len(listings))
	}
}

func TestListByOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")
	createTestListing(t, db, alice.ID, "Bike", "old")
	createTestListing(t, db, bob.ID, "Lamp", "bright")
	createTestListing(t, db, alice.ID, "Chair", "comfy")

	listings, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("ListByOwner() returned %d listings, want 2", len(listings))
	}
	for _, l := range listings {
		if l.UserID != alice.ID {
			t.Errorf("ListByOwner() returned listing owned by %d", l.UserID)
		}
	}
}

func TestUpdateListing_OwnerMatch(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")
	created := createTestListing(t, db, owner.ID, "Bike", "old")

	created.Title = "Road bike"
	created.Price = 150
	changed, err := db.UpdateListing(context.Background(), created)
	if err != nil {
		t.Fatalf("UpdateListing() error = %v", err)
	}
	if changed != 1 {
		t.Errorf("UpdateListing() changed = %d, want 1", changed)
	}

	found, err := db.GetListing(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if found.Title != "Road bike" || found.Price != 150 {
		t.Errorf("update not persisted: %+v", found)
	}
}

func TestUpdateListing_WrongOwnerIsNoOp(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")
	created := createTestListing(t, db, alice.ID, "Bike", "old")

	hijacked := *created
	hijacked.UserID = bob.ID
	hijacked.Title = "stolen"

	changed, err := db.UpdateListing(context.Background(), &hijacked)
	if err != nil {
		t.Fatalf("UpdateListing() error = %v", err)
	}
	if changed != 0 {
		t.Errorf("UpdateListing() changed = %d, want 0", changed)
	}

	found, _ := db.GetListing(context.Background(), created.ID)
	if found.Title != "Bike" {
		t.Errorf("row was mutated by a non-owner: %+v", found)
	}
}

func TestDeleteListing(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Alice", "alice@example.com")
	created := createTestListing(t, db, owner.ID, "Bike", "old")

	deleted, err := db.DeleteListing(context.Background(), created.ID, owner.ID)
	if err != nil {
		t.Fatalf("DeleteListing() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteListing() deleted = %d, want 1", deleted)
	}

	if _, err := db.GetListing(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("listing still present after delete")
	}
}

func TestDeleteListing_WrongOwnerIsNoOp(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")
	created := createTestListing(t, db, alice.ID, "Bike", "old")

	deleted, err := db.DeleteListing(context.Background(), created.ID, bob.ID)
	if err != nil {
		t.Fatalf("DeleteListing() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("DeleteListing() deleted = %d, want 0", deleted)
	}
}
