package server

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"igdash/pkg/config"
)

// Reporter forwards server-side failures to an error tracker
type Reporter interface {
	Wrap(next http.Handler) http.Handler
	Capture(ctx context.Context, err error)
	Flush(timeout time.Duration)
}

// NopReporter discards everything
type NopReporter struct{}

func (NopReporter) Wrap(next http.Handler) http.Handler { return next }
func (NopReporter) Capture(context.Context, error)      {}
func (NopReporter) Flush(time.Duration)                 {}

// SentryReporter reports 5xx failures and panics to Sentry
type SentryReporter struct {
	handler *sentryhttp.Handler
}

// NewReporter returns a SentryReporter when a DSN is configured, otherwise a
// NopReporter
func NewReporter(cfg config.SentryConfig) (Reporter, error) {
	if cfg.DSN == "" {
		return NopReporter{}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return nil, err
	}

	return &SentryReporter{
		// repanic so the outer recoverer still answers the client
		handler: sentryhttp.New(sentryhttp.Options{Repanic: true}),
	}, nil
}

func (r *SentryReporter) Wrap(next http.Handler) http.Handler {
	return r.handler.Handle(next)
}

func (r *SentryReporter) Capture(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

func (r *SentryReporter) Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
