package scraper

import (
	"context"

	"igdash/pkg/instagram"
	"igdash/pkg/models"
)

// InstagramClient defines the upstream operations the pipeline needs
type InstagramClient interface {
	FetchProfile(ctx context.Context, username string) (*instagram.ProfileUser, error)
	FetchTimelinePage(ctx context.Context, userID string, first int, after string) (*instagram.TimelinePage, error)
}

// PostWriter persists normalized posts for a handle. Inserts are plain
// appends; no deduplication is performed.
type PostWriter interface {
	InsertPosts(ctx context.Context, username string, posts []models.Post) (int, error)
}
