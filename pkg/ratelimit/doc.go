// Package ratelimit provides request pacing for the ingestion pipeline.
//
// Outbound:
//
// FixedDelay implements Pacer. The pagination driver calls Wait between two
// timeline pages, and only when another page will actually be fetched. The
// interval is fixed; there is no adaptive backoff on 429 or 5xx answers.
//
// Inbound:
//
// KeyedLimiter keeps one token bucket per caller key (the HTTP boundary keys
// by client IP) so a single client cannot start ingestions back to back.
//
// Usage:
//
//	pacer := ratelimit.NewFixedDelay(time.Second)
//	if err := pacer.Wait(ctx); err != nil {
//	    return err
//	}
//
//	limiter := ratelimit.NewKeyedLimiter(6, time.Minute, 2)
//	if !limiter.Allow(clientIP) {
//	    // answer 429
//	}
package ratelimit
