package scraper

import (
	"context"
	"errors"

	"igdash/pkg/config"
	igerrors "igdash/pkg/errors"
	"igdash/pkg/instagram"
	"igdash/pkg/logger"
	"igdash/pkg/models"
	"igdash/pkg/normalizer"
	"igdash/pkg/ratelimit"
)

// ErrNoStore is returned by Ingest when no persistence backend is configured
var ErrNoStore = errors.New("no storage backend configured")

// IngestResult is what an ingestion run reports back
type IngestResult struct {
	Username string        `json:"username"`
	Inserted int           `json:"inserted"`
	Posts    []models.Post `json:"posts"`
}

// Scraper runs the ingestion pipeline: resolve handle, paginate, normalize and
// optionally persist.
type Scraper struct {
	client     InstagramClient
	store      PostWriter
	pacer      ratelimit.Pacer
	pagination config.PaginationConfig
	logger     logger.Logger
}

// New creates a Scraper. store may be nil, in which case Ingest fails with a
// storage error and Scrape and Profile keep working.
func New(client InstagramClient, store PostWriter, pacer ratelimit.Pacer, cfg config.PaginationConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = ratelimit.NewFixedDelay(cfg.InterRequestDelay)
	}
	return &Scraper{
		client:     client,
		store:      store,
		pacer:      pacer,
		pagination: cfg,
		logger:     log,
	}
}

// Scrape resolves handle and returns its posts, capped and in upstream order
func (s *Scraper) Scrape(ctx context.Context, handle string) ([]models.Post, error) {
	username := instagram.SanitizeUsername(handle)
	if username == "" {
		return nil, &igerrors.MissingInputError{Field: "userId"}
	}

	log := s.logger.WithField("username", username)
	log.Info("starting scrape")

	user, err := s.client.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	// one paginator per run
	posts, err := NewPaginator(s.client, s.pacer, s.pagination, log).Collect(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.InfoWithFields("scrape completed", map[string]interface{}{
		"user_id": user.ID,
		"posts":   len(posts),
	})
	return posts, nil
}

// Ingest scrapes handle and appends every post to the store
func (s *Scraper) Ingest(ctx context.Context, handle string) (*IngestResult, error) {
	if s.store == nil {
		if instagram.SanitizeUsername(handle) == "" {
			return nil, &igerrors.MissingInputError{Field: "userId"}
		}
		return nil, igerrors.NewStorageError("insert", ErrNoStore)
	}

	posts, err := s.Scrape(ctx, handle)
	if err != nil {
		return nil, err
	}

	username := instagram.SanitizeUsername(handle)
	inserted, err := s.store.InsertPosts(ctx, username, posts)
	if err != nil {
		s.logger.WithError(err).WithField("username", username).Error("failed to persist posts")
		var storageErr *igerrors.StorageError
		if !errors.As(err, &storageErr) {
			err = igerrors.NewStorageError("insert", err)
		}
		return nil, err
	}

	s.logger.InfoWithFields("posts ingested", map[string]interface{}{
		"username": username,
		"inserted": inserted,
	})
	return &IngestResult{Username: username, Inserted: inserted, Posts: posts}, nil
}

// Profile resolves handle and returns a fresh profile summary
func (s *Scraper) Profile(ctx context.Context, handle string) (*models.ProfileSummary, error) {
	username := instagram.SanitizeUsername(handle)
	if username == "" {
		return nil, &igerrors.MissingInputError{Field: "userId"}
	}

	user, err := s.client.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	summary := normalizer.Profile(user)
	return &summary, nil
}
