// Package logger provides structured logging for igdash.
//
// It wraps zerolog behind a small Logger interface:
//
//	log, err := logger.Initialize(&cfg.Logging)
//	log.WithField("username", "alice").Info("ingestion started")
//	log.WithError(err).ErrorWithFields("page fetch failed", logger.Fields{
//	    "page":   3,
//	    "cursor": cursor,
//	})
//
// Slog returns a *slog.Logger writing to the same sink, used for the fx
// container's event log. Tests use NewTestLogger to capture lines or
// NewNopLogger to discard them.
package logger
