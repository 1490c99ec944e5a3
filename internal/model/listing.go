package model

import "time"

// Listing is an item offered on the marketplace.
//
// UserID references the creating user and never changes — ownership checks in
// the service layer compare it against the authenticated caller. Image is a
// relative path under the public uploads directory, empty when the listing has
// no photo. Price is never rejected at the boundary: absent, negative or
// unparseable input is coerced to 0 before it reaches the store.
type Listing struct {
	ID          int64     `json:"id"          db:"id"`
	UserID      int64     `json:"userId"      db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price"       db:"price"`
	Image       string    `json:"image"       db:"image"` // relative path, "" = none
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
