package domain

import "time"

// Post is a normalized candidate story pulled from an external feed.
// A post is unique per (external id, cycle) and immutable once rated,
// except for the duplicate flag set by the dedup pass.
type Post struct {
	ID          int64
	CycleID     int64
	ExternalID  string
	Title       string
	Description string
	Author      string
	ImageURL    string
	PublishedAt time.Time
	Duplicate   bool
	CreatedAt   time.Time
}

// ScoredPost pairs a post with its persisted rating for selection.
type ScoredPost struct {
	Post   Post
	Rating Rating
}
