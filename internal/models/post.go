package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	SocialAccountID int64          `db:"social_account_id" json:"social_account_id"`
	Content         string         `db:"content" json:"content"`
	MediaURLs       pq.StringArray `db:"media_urls" json:"media_urls"`
	Status          string         `db:"status" json:"status"`
	ScheduledAt     *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt     *time.Time     `db:"published_at" json:"published_at"`
	PlatformPostID  *string        `db:"platform_post_id" json:"platform_post_id"`
	ErrorMessage    *string        `db:"error_message" json:"error_message"`
	Metrics         PostMetrics    `json:"metrics"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// PostMetrics holds the engagement counts captured from the platform.
// Nil means the platform never reported the value, not zero engagement.
type PostMetrics struct {
	Likes       *int64     `db:"metrics_likes" json:"likes"`
	Comments    *int64     `db:"metrics_comments" json:"comments"`
	Shares      *int64     `db:"metrics_shares" json:"shares"`
	Impressions *int64     `db:"metrics_impressions" json:"impressions"`
	Reach       *int64     `db:"metrics_reach" json:"reach"`
	Saves       *int64     `db:"metrics_saves" json:"saves"`
	UpdatedAt   *time.Time `db:"metrics_updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "DRAFT"
	PostStatusScheduled = "SCHEDULED"
	PostStatusPublished = "PUBLISHED"
	PostStatusFailed    = "FAILED"
)
