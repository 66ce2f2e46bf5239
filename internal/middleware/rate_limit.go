package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// CleanupInterval is the interval for cleaning up stale limiters
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters
	LimiterTTL = 10 * time.Minute
)

// RateLimiter limits imports per owner
type RateLimiter struct {
	limiters  map[uuid.UUID]*limiterEntry
	mu        sync.Mutex
	rateLimit rate.Limit
	burstSize int
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter allowing perSecond requests per owner
// with the given burst
func NewRateLimiter(perSecond float64, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[uuid.UUID]*limiterEntry),
		rateLimit: rate.Limit(perSecond),
		burstSize: burstSize,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given owner is allowed
func (r *RateLimiter) Allow(ownerID uuid.UUID) bool {
	return r.entry(ownerID).limiter.Allow()
}

func (r *RateLimiter) entry(ownerID uuid.UUID) *limiterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.limiters[ownerID]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.rateLimit, r.burstSize)}
		r.limiters[ownerID] = entry
	}
	entry.lastSeen = time.Now()
	return entry
}

// retryAfter estimates how long until the owner's next token
func (r *RateLimiter) retryAfter(ownerID uuid.UUID) int {
	tokens := r.entry(ownerID).limiter.Tokens()
	seconds := int((1 - tokens) / float64(r.rateLimit))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// cleanup periodically removes stale limiters to prevent memory leaks
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictBefore(time.Now().Add(-LimiterTTL))
		case <-r.stopCh:
			return
		}
	}
}

func (r *RateLimiter) evictBefore(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ownerID, entry := range r.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(r.limiters, ownerID)
			log.Debug().Str("owner_id", ownerID.String()).Msg("Cleaned up stale rate limiter")
		}
	}
}

// Stop stops the cleanup goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware limits authenticated owners; it must run after Authenticate
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ownerID := GetOwnerID(c)
			if ownerID == uuid.Nil {
				return next(c)
			}

			if !rl.Allow(ownerID) {
				retryAfter := rl.retryAfter(ownerID)
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn().
					Str("owner_id", ownerID.String()).
					Int("retry_after", retryAfter).
					Msg("Import rate limit exceeded")

				return rateLimitError(c, fmt.Sprintf("Too many imports. Please retry after %d seconds.", retryAfter))
			}

			return next(c)
		}
	}
}
