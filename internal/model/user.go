// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash AND NOT Password?
// The raw password only exists inside the registration/login request. The
// only thing persisted is the bcrypt hash, and the `json:"-"` tag guarantees
// it can never leak into an API response — even if a handler serialises the
// whole struct.
//
// Username is the login identifier. It is UNIQUE in the database — the
// constraint lives in the schema, not in application-level checks, so two
// concurrent registrations with the same name cannot both succeed.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
