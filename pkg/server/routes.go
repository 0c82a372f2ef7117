package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.Handle("POST /api/scrape", s.rateLimited(http.HandlerFunc(s.handleScrape)))
	s.mux.Handle("POST /api/ingest", s.rateLimited(http.HandlerFunc(s.handleIngest)))
	s.mux.HandleFunc("POST /api/profile", s.handleProfile)

	s.mux.HandleFunc("GET /api/data", s.handleData)
	s.mux.HandleFunc("GET /api/names", s.handleNames)
}
