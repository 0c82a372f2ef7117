package storage

import (
	"context"

	"github.com/Masterminds/squirrel"

	"igdash/pkg/models"
)

// SqBuilder builds postgres statements with $n placeholders
var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const postsTable = "posts"

// Store persists ingested posts. Inserts are plain appends with no
// deduplication, so ingesting a handle twice stores its posts twice.
// Every failure is an *errors.StorageError.
type Store interface {
	InsertPosts(ctx context.Context, username string, posts []models.Post) (int, error)
	PostsByUsername(ctx context.Context, username string) ([]models.StoredPost, error)
	Usernames(ctx context.Context) ([]string, error)
}
