package domain

import (
	"time"
)

// Post meta keys owned by this service
const (
	// MetaProvenance marks a post as created through the content platform.
	// Only posts carrying this marker are view-tracked and listed.
	MetaProvenance = "pagepilot_post"

	// MetaViewsDaily holds yesterday's distinct-visitor count, overwritten
	// by the daily aggregation job
	MetaViewsDaily = "post_views_daily"

	// MetaViewsMonthly holds last month's summed count, overwritten by the
	// monthly aggregation job
	MetaViewsMonthly = "post_views_monthly"
)

// Post represents an article on the connected site
type Post struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	Status     string    `json:"status" db:"status"`
	CategoryID int64     `json:"category_id" db:"category_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Category is a post category exposed to the content platform
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// PublishRequest is the payload for creating a post
type PublishRequest struct {
	Title      string `json:"post_title"`
	Content    string `json:"post_content"`
	Status     string `json:"post_status"`
	CategoryID int64  `json:"category_id"`
}

// UpdateRequest is the payload for updating a post
type UpdateRequest struct {
	PostID  int64   `json:"post_id"`
	Title   *string `json:"post_title"`
	Content *string `json:"post_content"`
	Status  *string `json:"post_status"`
}
