package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"igdash/pkg/config"
	"igdash/pkg/logger"
	"igdash/pkg/models"
	"igdash/pkg/ratelimit"
	"igdash/pkg/scraper"
)

// Pipeline is the ingestion surface the handlers drive
type Pipeline interface {
	Scrape(ctx context.Context, handle string) ([]models.Post, error)
	Ingest(ctx context.Context, handle string) (*scraper.IngestResult, error)
	Profile(ctx context.Context, handle string) (*models.ProfileSummary, error)
}

// Reader is the read-only query surface over persisted posts
type Reader interface {
	PostsByUsername(ctx context.Context, username string) ([]models.StoredPost, error)
	Usernames(ctx context.Context) ([]string, error)
}

// Server is the HTTP boundary of the dashboard backend
type Server struct {
	pipeline  Pipeline
	reader    Reader
	limiter   *ratelimit.KeyedLimiter
	reporter  Reporter
	logger    logger.Logger
	cfg       config.ServerConfig
	mux       *http.ServeMux
	httpSrv   *http.Server
	startedAt time.Time
}

// New creates a Server. reader may be nil when no storage is configured, in
// which case the query endpoints answer with a storage error.
func New(pipeline Pipeline, reader Reader, cfg config.ServerConfig, reporter Reporter, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	s := &Server{
		pipeline:  pipeline,
		reader:    reader,
		reporter:  reporter,
		logger:    log.WithField("component", "http"),
		cfg:       cfg,
		mux:       http.NewServeMux(),
		startedAt: time.Now(),
	}
	if cfg.IngestPerMinute > 0 {
		s.limiter = ratelimit.NewKeyedLimiter(cfg.IngestPerMinute, time.Minute, cfg.IngestBurst)
	}
	s.routes()
	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.reporter.Wrap(s.requestLogger(s.unmatched(s.mux))))
}

// Start listens on the configured address and serves in the background
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.httpSrv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.InfoWithFields("http server listening", map[string]interface{}{
		"addr": ln.Addr().String(),
	})

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("http server stopped unexpectedly")
		}
	}()
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return s.httpSrv.Shutdown(ctx)
}

// ListenAndServe serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}
