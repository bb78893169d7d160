package domain

import (
	"time"
)

// ViewRecord represents one deduplicated page view: a single visitor on a
// single post on a single day. The (post_id, view_date, visitor_hash)
// triple is unique in storage.
type ViewRecord struct {
	ID          int64     `json:"id" db:"id"`
	PostID      int64     `json:"post_id" db:"post_id"`
	ViewDate    time.Time `json:"view_date" db:"view_date"`
	ViewCount   int       `json:"view_count" db:"view_count"`
	VisitorHash string    `json:"visitor_hash" db:"visitor_hash"`
}

// PostViewCount is one post's distinct-visitor count for a rollup window
type PostViewCount struct {
	PostID int64 `json:"post_id" db:"post_id"`
	Views  int64 `json:"views" db:"views"`
}

// SiteStats carries the sitewide counters reported to the content platform
type SiteStats struct {
	Today   int64 `json:"today"`
	Monthly int64 `json:"monthly"`
}
