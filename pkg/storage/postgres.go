package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"igdash/pkg/config"
	"igdash/pkg/errors"
	"igdash/pkg/logger"
	"igdash/pkg/models"
)

var postColumns = []string{
	"username", "post_id", "type", "likes_count", "comments_count",
	"description", "date_time", "media_url", "top_comments", "views_count", "ingested_at",
}

// Postgres is a Store backed by a pgx pool
type Postgres struct {
	pool   *pgxpool.Pool
	clock  clockwork.Clock
	logger logger.Logger
}

var _ Store = (*Postgres)(nil)

// NewPool opens a pool for cfg. The caller owns it and must Close it.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, errors.NewStorageError("connect", err)
	}
	return pool, nil
}

// NewPostgres creates a Postgres store on an existing pool
func NewPostgres(pool *pgxpool.Pool, log logger.Logger) *Postgres {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Postgres{
		pool:   pool,
		clock:  clockwork.NewRealClock(),
		logger: log.WithField("component", "postgres_store"),
	}
}

// maxBindParams is the postgres limit on parameters in one statement
const maxBindParams = 65535

// insertBatchRows keeps every insert statement under maxBindParams
var insertBatchRows = maxBindParams / len(postColumns)

// InsertPosts appends posts for username. Large sets are split into several
// statements inside one transaction, so either every post is stored or none.
func (p *Postgres) InsertPosts(ctx context.Context, username string, posts []models.Post) (int, error) {
	if username == "" {
		return 0, &errors.MissingInputError{Field: "username"}
	}
	if len(posts) == 0 {
		return 0, nil
	}

	now := p.clock.Now().UTC()
	inserted := 0
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, batch := range chunkPosts(posts, insertBatchRows) {
			query, args, err := insertQuery(username, batch, now)
			if err != nil {
				return fmt.Errorf("build query: %w", err)
			}
			tag, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		p.logger.WithError(err).ErrorWithFields("insert posts failed", map[string]interface{}{
			"username": username,
			"posts":    len(posts),
		})
		return 0, errors.NewStorageError("insert", err)
	}

	return inserted, nil
}

func insertQuery(username string, posts []models.Post, now time.Time) (string, []interface{}, error) {
	builder := SqBuilder.Insert(postsTable).Columns(postColumns...)
	for _, post := range posts {
		comments := post.TopComments
		if comments == nil {
			comments = []string{}
		}
		builder = builder.Values(
			username, post.PostID, post.Type, post.LikesCount, post.CommentsCount,
			post.Description, post.DateTime, post.MediaURL, comments, post.ViewsCount, now,
		)
	}
	return builder.ToSql()
}

// chunkPosts splits posts into consecutive batches of at most size
func chunkPosts(posts []models.Post, size int) [][]models.Post {
	if size <= 0 {
		size = len(posts)
	}
	batches := make([][]models.Post, 0, (len(posts)+size-1)/size)
	for start := 0; start < len(posts); start += size {
		end := min(start+size, len(posts))
		batches = append(batches, posts[start:end])
	}
	return batches
}

// PostsByUsername returns the posts stored for an exact username, in
// insertion order
func (p *Postgres) PostsByUsername(ctx context.Context, username string) ([]models.StoredPost, error) {
	query, args, err := SqBuilder.
		Select(postColumns...).
		From(postsTable).
		Where(sq.Eq{"username": username}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, errors.NewStorageError("select", fmt.Errorf("build query: %w", err))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("select", err)
	}

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StoredPost, error) {
		var sp models.StoredPost
		err := row.Scan(
			&sp.Username, &sp.PostID, &sp.Type, &sp.LikesCount, &sp.CommentsCount,
			&sp.Description, &sp.DateTime, &sp.MediaURL, &sp.TopComments, &sp.ViewsCount, &sp.IngestedAt,
		)
		return sp, err
	})
	if err != nil {
		return nil, errors.NewStorageError("select", err)
	}

	return posts, nil
}

// Usernames returns every distinct stored username, sorted
func (p *Postgres) Usernames(ctx context.Context) ([]string, error) {
	query, args, err := SqBuilder.
		Select("username").
		Distinct().
		From(postsTable).
		OrderBy("username").
		ToSql()
	if err != nil {
		return nil, errors.NewStorageError("distinct", fmt.Errorf("build query: %w", err))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("distinct", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.NewStorageError("distinct", err)
	}

	return names, nil
}

// Ping checks connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	return errors.NewStorageError("ping", p.pool.Ping(ctx))
}
