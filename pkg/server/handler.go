package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"igdash/pkg/errors"
	"igdash/pkg/models"
	"igdash/pkg/scraper"
)

// maxBodyBytes bounds request bodies on the JSON endpoints
const maxBodyBytes = 1 << 16

// ingestRequest is the body of the scrape, ingest and profile endpoints
type ingestRequest struct {
	UserID string `json:"userId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Posts []models.StoredPost `json:"posts"`
}

type namesResponse struct {
	Usernames []string `json:"usernames"`
	Success   bool     `json:"success"`
}

type namesFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"startedAt": s.startedAt.Format(time.RFC3339),
		"storage":   s.reader != nil,
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.decodeHandle(w, r)
	if !ok {
		return
	}

	posts, err := s.pipeline.Scrape(detach(r), handle)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.decodeHandle(w, r)
	if !ok {
		return
	}

	result, err := s.pipeline.Ingest(detach(r), handle)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.decodeHandle(w, r)
	if !ok {
		return
	}

	summary, err := s.pipeline.Profile(r.Context(), handle)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		s.writeError(w, r, &errors.MissingInputError{Field: "username"})
		return
	}
	if s.reader == nil {
		s.writeError(w, r, errors.NewStorageError("select", scraper.ErrNoStore))
		return
	}

	posts, err := s.reader.PostsByUsername(r.Context(), username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if posts == nil {
		posts = []models.StoredPost{}
	}
	s.writeJSON(w, http.StatusOK, dataResponse{Posts: posts})
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	var (
		names []string
		err   error
	)
	if s.reader == nil {
		err = errors.NewStorageError("distinct", scraper.ErrNoStore)
	} else {
		names, err = s.reader.Usernames(r.Context())
	}
	if err != nil {
		s.logError(r, err)
		s.writeJSON(w, errors.HTTPStatus(err), namesFailure{Success: false, Error: err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, namesResponse{Usernames: names, Success: true})
}

// decodeHandle reads the userId from the body. An empty body is passed on
// as an empty handle so the pipeline reports the missing input.
func (s *Server) decodeHandle(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ingestRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !stderrors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return "", false
	}
	return req.UserID, true
}

// detach keeps request values but drops cancellation, so a pagination run
// that has started always finishes.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	s.writeJSON(w, errors.HTTPStatus(err), errorResponse{Error: err.Error()})
}

func (s *Server) logError(r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	fields := map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"error_type": string(errors.TypeOf(err)),
	}
	if upstream := errors.UpstreamStatus(err); upstream != 0 {
		fields["upstream_status"] = upstream
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).ErrorWithFields("request failed", fields)
		s.reporter.Capture(r.Context(), err)
		return
	}
	s.logger.WithError(err).WarnWithFields("request rejected", fields)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}
