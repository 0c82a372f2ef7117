package main

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"igdash/pkg/config"
	"igdash/pkg/instagram"
	"igdash/pkg/logger"
	"igdash/pkg/ratelimit"
	"igdash/pkg/scraper"
	"igdash/pkg/server"
	"igdash/pkg/storage"
)

// flushTimeout bounds how long pending error reports may delay shutdown
const flushTimeout = 2 * time.Second

// appOptions wires the dashboard backend from cfg and log
func appOptions(cfg *config.Config, log logger.Logger) fx.Option {
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.Slog()}
		}),
		fx.Supply(cfg),
		fx.Provide(func() logger.Logger { return log }),

		storage.Module,

		fx.Provide(
			newInstagramClient,
			newPacer,
			newScraper,
			newReporter,
			newServer,
		),

		fx.Invoke(registerServer),
	)
}

func newInstagramClient(cfg *config.Config, log logger.Logger) *instagram.Client {
	return instagram.NewClient(cfg.Instagram, log)
}

func newPacer(cfg *config.Config) ratelimit.Pacer {
	return ratelimit.NewFixedDelay(cfg.Pagination.InterRequestDelay)
}

func newScraper(client *instagram.Client, store storage.Store, pacer ratelimit.Pacer, cfg *config.Config, log logger.Logger) *scraper.Scraper {
	var writer scraper.PostWriter
	if store != nil {
		writer = store
	}
	return scraper.New(client, writer, pacer, cfg.Pagination, log)
}

func newReporter(cfg *config.Config) (server.Reporter, error) {
	return server.NewReporter(cfg.Sentry)
}

func newServer(s *scraper.Scraper, store storage.Store, reporter server.Reporter, cfg *config.Config, log logger.Logger) *server.Server {
	var reader server.Reader
	if store != nil {
		reader = store
	}
	return server.New(s, reader, cfg.Server, reporter, log)
}

func registerServer(lc fx.Lifecycle, srv *server.Server, reporter server.Reporter) {
	lc.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop: func(ctx context.Context) error {
			err := srv.Stop(ctx)
			reporter.Flush(flushTimeout)
			return err
		},
	})
}
