package analytics

import (
	"context"

	"crosspost/internal/models"
)

// Fetcher reads engagement counts for one published post. Fetch never
// returns an error: anything that goes wrong degrades to nil and the caller
// skips the update without touching the post.
type Fetcher interface {
	Fetch(ctx context.Context, token, platformPostID string) *models.PostMetrics
}
