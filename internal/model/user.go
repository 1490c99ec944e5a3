// Package model defines the data structures used throughout the application.
package model

// User is a registered account. Email doubles as the login identifier and is
// unique in the database.
//
// PasswordHash holds the salted bcrypt hash of the user's password. The
// `json:"-"` tag keeps it out of every API response — the only code that reads
// it is the login flow, via bcrypt's comparison.
type User struct {
	ID           int64  `json:"id"    db:"id"`
	Name         string `json:"name"  db:"name"`  // display name, may be empty
	Email        string `json:"email" db:"email"` // unique, required
	PasswordHash string `json:"-"     db:"password"`
}
