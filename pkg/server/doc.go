// Package server exposes the ingestion pipeline and the stored posts over
// HTTP.
//
// Routes:
//
//	GET  /healthz        liveness
//	POST /api/scrape     {userId} -> [Post], live, not persisted
//	POST /api/ingest     {userId} -> {username, inserted, posts}
//	POST /api/profile    {userId} -> ProfileSummary
//	GET  /api/data       ?username= -> {posts}
//	GET  /api/names      -> {usernames, success}
//
// Failures answer {"error": "..."} with the status from errors.HTTPStatus:
// 400 for missing input, 502 for upstream and malformed responses, 500 for
// storage and anything else. Scrape and ingest run detached from request
// cancellation.
package server
