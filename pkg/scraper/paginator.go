package scraper

import (
	"context"

	"igdash/pkg/config"
	"igdash/pkg/instagram"
	"igdash/pkg/logger"
	"igdash/pkg/models"
	"igdash/pkg/normalizer"
	"igdash/pkg/ratelimit"
)

const (
	DefaultMaxPosts = 200
	DefaultPageSize = instagram.MaxPageSize
)

// Paginator walks an account's timeline page by page. It holds no state
// between runs, but each run is strictly sequential since every cursor comes
// from the previous page.
type Paginator struct {
	client   InstagramClient
	pacer    ratelimit.Pacer
	maxPosts int
	pageSize int
	logger   logger.Logger
}

// NewPaginator creates a paginator. Non-positive limits fall back to the
// defaults.
func NewPaginator(client InstagramClient, pacer ratelimit.Pacer, cfg config.PaginationConfig, log logger.Logger) *Paginator {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = ratelimit.NewFixedDelay(cfg.InterRequestDelay)
	}

	p := &Paginator{
		client:   client,
		pacer:    pacer,
		maxPosts: cfg.MaxPosts,
		pageSize: cfg.PageSize,
		logger:   log,
	}
	if p.maxPosts <= 0 {
		p.maxPosts = DefaultMaxPosts
	}
	if p.pageSize <= 0 || p.pageSize > instagram.MaxPageSize {
		p.pageSize = DefaultPageSize
	}
	return p
}

// Collect fetches and normalizes posts for userID in upstream order, up to
// the configured cap. Any failure discards everything collected so far.
//
// The loop ends when the upstream reports no next page, the cap is reached,
// a page adds no posts, or the cursor is missing or repeats.
func (p *Paginator) Collect(ctx context.Context, userID string) ([]models.Post, error) {
	log := p.logger.WithField("user_id", userID)

	collected := make([]models.Post, 0, min(p.maxPosts, p.pageSize))
	cursor := ""

	for page := 1; ; page++ {
		result, err := p.client.FetchTimelinePage(ctx, userID, p.pageSize, cursor)
		if err != nil {
			log.WithError(err).ErrorWithFields("timeline page failed, discarding partial results", map[string]interface{}{
				"page":      page,
				"collected": len(collected),
			})
			return nil, err
		}

		posts, err := normalizer.NormalizeAll(result.Nodes)
		if err != nil {
			log.WithError(err).ErrorWithFields("malformed node in timeline page", map[string]interface{}{
				"page": page,
			})
			return nil, err
		}
		collected = append(collected, posts...)

		log.DebugWithFields("timeline page collected", map[string]interface{}{
			"page":          page,
			"edges":         len(posts),
			"collected":     len(collected),
			"has_next_page": result.HasNextPage,
		})

		if len(collected) >= p.maxPosts {
			collected = collected[:p.maxPosts]
			break
		}
		if !result.HasNextPage {
			break
		}
		if len(posts) == 0 {
			log.WarnWithFields("empty page with has_next_page set, stopping", map[string]interface{}{
				"page": page,
			})
			break
		}
		if result.EndCursor == "" || result.EndCursor == cursor {
			log.WarnWithFields("cursor did not advance, stopping", map[string]interface{}{
				"page":   page,
				"cursor": result.EndCursor,
			})
			break
		}
		cursor = result.EndCursor

		if err := p.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	log.InfoWithFields("timeline collected", map[string]interface{}{
		"posts": len(collected),
	})
	return collected, nil
}
