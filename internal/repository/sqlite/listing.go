package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/tradecircle/internal/apperror"
	"github.com/sakif/tradecircle/internal/model"
	"github.com/sakif/tradecircle/internal/repository"
)

// compile-time check that *DB implements repository.ListingRepository
var _ repository.ListingRepository = (*DB)(nil)

const listingColumns = `id, user_id, title, description, price, image, created_at`

// CreateListing inserts a new listing and fills in its ID and CreatedAt.
func (db *DB) CreateListing(ctx context.Context, listing *model.Listing) error {
	listing.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO listings (user_id, title, description, price, image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		listing.UserID,
		listing.Title,
		listing.Description,
		listing.Price,
		nullableString(listing.Image),
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new listing id: %w", err)
	}
	listing.ID = id

	return nil
}

// GetListing returns one listing by id.
func (db *DB) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)

	listing, err := scanListing(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("sqlite: getting listing %d: %w", id, err)
	}

	return listing, nil
}

// ListRecent returns up to limit listings, newest first.
func (db *DB) ListRecent(ctx context.Context, limit int) ([]model.Listing, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows, limit)
}

// SearchListings matches query as a literal substring of title or
// description. LIKE metacharacters in the query are escaped so "50%" matches
// only rows containing the two characters "5", "0" followed by a percent
// sign — never every row.
func (db *DB) SearchListings(ctx context.Context, query string, limit int) ([]model.Listing, error) {
	pattern := "%" + escapeLike(query) + "%"

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows, limit)
}

// ListByOwner returns every listing of one owner, newest first.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64) ([]model.Listing, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing by owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	return collectListings(rows, 0)
}

// UpdateListing overwrites the mutable fields of the row matching both id
// and owner. The owner condition is part of the statement itself, so a
// listing that changes hands (or disappears) between the service's ownership
// check and this call yields 0 rows changed instead of a misdirected write.
func (db *DB) UpdateListing(ctx context.Context, listing *model.Listing) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, price = ?, image = ?
		 WHERE id = ? AND user_id = ?`,
		listing.Title,
		listing.Description,
		listing.Price,
		nullableString(listing.Image),
		listing.ID,
		listing.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: updating listing %d: %w", listing.ID, err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return changed, nil
}

// DeleteListing removes the row matching both id and owner. Same
// conditional-mutation contract as UpdateListing.
func (db *DB) DeleteListing(ctx context.Context, id, ownerID int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM listings WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting listing %d: %w", id, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return deleted, nil
}

// scanner is the subset of sql.Row / sql.Rows that scanListing needs.
type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*model.Listing, error) {
	var (
		l     model.Listing
		image sql.NullString
	)
	if err := s.Scan(
		&l.ID, &l.UserID, &l.Title, &l.Description, &l.Price, &image, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	l.Image = image.String
	return &l, nil
}

func collectListings(rows *sql.Rows, capHint int) ([]model.Listing, error) {
	listings := make([]model.Listing, 0, capHint)

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing row: %w", err)
		}
		listings = append(listings, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listings: %w", err)
	}

	return listings, nil
}

// escapeLike neutralises LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// nullableString maps "" to NULL so the image column stays genuinely
// optional at the schema level.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
