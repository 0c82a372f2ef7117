package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.InfoWithFields("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
			"remote":   clientKey(r),
		})
	})
}

// discardWriter records the status the mux would have answered with
type discardWriter struct {
	header http.Header
	status int
}

func (d *discardWriter) Header() http.Header         { return d.header }
func (d *discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (d *discardWriter) WriteHeader(status int)      { d.status = status }

// unmatched answers requests no route accepts with a JSON error instead of
// the mux's plain-text 404/405
func (s *Server) unmatched(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := s.mux.Handler(r)
		if pattern != "" {
			next.ServeHTTP(w, r)
			return
		}

		dw := &discardWriter{header: http.Header{}, status: http.StatusOK}
		h.ServeHTTP(dw, r)
		if dw.status < http.StatusBadRequest {
			next.ServeHTTP(w, r)
			return
		}
		if allow := dw.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		s.writeJSON(w, dw.status, errorResponse{Error: strings.ToLower(http.StatusText(dw.status))})
	})
}

// recoverer turns a handler panic into a 500 JSON answer
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.ErrorWithFields("handler panic", map[string]interface{}{
					"path":  r.URL.Path,
					"panic": fmt.Sprint(rec),
				})
				s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimited answers 429 once a client exceeds its ingestion allowance
func (s *Server) rateLimited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !s.limiter.Allow(key) {
			s.logger.WarnWithFields("ingestion rate limit exceeded", map[string]interface{}{
				"remote": key,
				"path":   r.URL.Path,
			})
			w.Header().Set("Retry-After", "60")
			s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many ingestion requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
