// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage is the production implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/tradecircle/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// CreateUser inserts a new user and fills in its ID.
	// Returns apperror.ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByEmail returns the full record, password hash included.
	// Returns apperror.ErrNotFound when no such account exists.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID returns the public fields of a user (the hash is omitted
	// from JSON anyway, but this query doesn't even select it).
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// ListingRepository persists marketplace listings.
type ListingRepository interface {
	// CreateListing inserts a new listing and fills in ID and CreatedAt.
	CreateListing(ctx context.Context, listing *model.Listing) error

	// GetListing returns one listing by id, or apperror.ErrNotFound.
	GetListing(ctx context.Context, id int64) (*model.Listing, error)

	// ListRecent returns up to limit listings, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Listing, error)

	// SearchListings returns up to limit listings whose title or description
	// contains query as a literal substring, newest first. Wildcard
	// metacharacters in query are matched literally, not expanded.
	SearchListings(ctx context.Context, query string, limit int) ([]model.Listing, error)

	// ListByOwner returns all listings belonging to ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Listing, error)

	// UpdateListing overwrites title/description/price/image of the row
	// matching both id and ownerID. Returns the number of rows changed
	// (0 when the row vanished between check and mutation).
	UpdateListing(ctx context.Context, listing *model.Listing) (int64, error)

	// DeleteListing removes the row matching both id and ownerID and
	// returns the number of rows removed.
	DeleteListing(ctx context.Context, id, ownerID int64) (int64, error)
}
