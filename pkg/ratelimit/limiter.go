package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Pacer spaces out successive outbound requests
type Pacer interface {
	// Wait blocks until the next request may be issued or ctx is done
	Wait(ctx context.Context) error
}

// FixedDelay is a Pacer that suspends for the same interval every time.
// It does not adapt to upstream responses.
type FixedDelay struct {
	delay time.Duration
	clock clockwork.Clock
}

// NewFixedDelay creates a fixed-interval pacer on the real clock
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return NewFixedDelayWithClock(delay, clockwork.NewRealClock())
}

// NewFixedDelayWithClock creates a fixed-interval pacer on the given clock
func NewFixedDelayWithClock(delay time.Duration, clock clockwork.Clock) *FixedDelay {
	return &FixedDelay{delay: delay, clock: clock}
}

// Delay returns the configured interval
func (f *FixedDelay) Delay() time.Duration {
	return f.delay
}

// Wait suspends for the configured interval. A non-positive interval returns
// immediately.
func (f *FixedDelay) Wait(ctx context.Context) error {
	if f.delay <= 0 {
		return ctx.Err()
	}

	select {
	case <-f.clock.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// KeyedLimiter is an in-memory token bucket per caller key
type KeyedLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewKeyedLimiter allows requests per interval for each key with the given burst.
// Example: NewKeyedLimiter(6, time.Minute, 2) -> one request every 10 seconds, burst of 2
func NewKeyedLimiter(requests int, per time.Duration, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Every(per / time.Duration(requests)),
		b:        burst,
	}
}

// Allow reports whether key may perform a request now
func (l *KeyedLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// Reset forgets all keys
func (l *KeyedLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters = make(map[string]*rate.Limiter)
}

func (l *KeyedLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[key] = limiter
	}
	return limiter
}
