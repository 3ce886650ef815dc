// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered author. Password holds the bcrypt hash, never the
// plain text.
type User struct {
	ID        int64
	Name      string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
}
