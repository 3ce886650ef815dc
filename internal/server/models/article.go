package models

import "time"

// Article is a post owned by the user whose username is Author.
type Article struct {
	ID     int64
	Title  string
	Body   string
	Author string
	// Image is an object-storage key or an absolute http(s) URL; empty when
	// the article has none.
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
