// Package scraper drives the ingestion pipeline.
//
// A run resolves a handle to its account id with one profile request, then a
// Paginator walks the timeline:
//
//   - pages are requested one at a time, each with the previous end cursor
//   - every node is normalized; a malformed node fails the run
//   - the pacer waits between pages, only when another page will be fetched
//   - the run stops at the post cap, when has_next_page is false, or when a
//     page adds nothing or the cursor stops advancing
//
// Nothing is retried. Any failure aborts the run and partial results are
// discarded, so callers get every requested post or an error.
//
// Usage:
//
//	s := scraper.New(client, store, ratelimit.NewFixedDelay(time.Second), cfg.Pagination, log)
//
//	posts, err := s.Scrape(ctx, "natgeo")
//	result, err := s.Ingest(ctx, "natgeo")
package scraper
