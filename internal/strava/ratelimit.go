package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava's published application limits. The stream backfill is the
// heavy consumer here: one request per ride, so a multi-year history
// will hit the 15-minute window repeatedly.
const (
	defaultShortLimit  = 100
	defaultDailyLimit  = 1000
	shortWindow        = 15 * time.Minute
	minRequestInterval = 150 * time.Millisecond
)

// RateLimiter tracks the short-window and daily quotas and spaces
// requests so a sync never trips Strava's 429 responses.
type RateLimiter struct {
	mu sync.Mutex

	shortLimit    int
	shortUsage    int
	shortResetsAt time.Time

	dailyLimit    int
	dailyUsage    int
	dailyResetsAt time.Time

	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a limiter seeded with Strava's default quotas.
// Actual limits are learned from response headers as requests complete.
func NewRateLimiter() *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		shortLimit:    defaultShortLimit,
		shortResetsAt: now.Add(shortWindow),
		dailyLimit:    defaultDailyLimit,
		dailyResetsAt: now.Truncate(24 * time.Hour).Add(24 * time.Hour),
		minInterval:   minRequestInterval,
	}
}

// Wait blocks until a request may be made, honoring both quota windows
// and the minimum spacing between requests.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if now.After(rl.shortResetsAt) {
		rl.shortUsage = 0
		rl.shortResetsAt = now.Add(shortWindow)
	}
	if now.After(rl.dailyResetsAt) {
		rl.dailyUsage = 0
		rl.dailyResetsAt = rl.dailyResetsAt.Add(24 * time.Hour)
	}

	if rl.shortUsage >= rl.shortLimit {
		if err := rl.sleepUntil(ctx, rl.shortResetsAt); err != nil {
			return err
		}
		rl.shortUsage = 0
		rl.shortResetsAt = time.Now().Add(shortWindow)
	}

	if rl.dailyUsage >= rl.dailyLimit {
		if err := rl.sleepUntil(ctx, rl.dailyResetsAt); err != nil {
			return err
		}
		rl.dailyUsage = 0
		rl.dailyResetsAt = rl.dailyResetsAt.Add(24 * time.Hour)
	}

	if since := time.Since(rl.lastRequest); since < rl.minInterval {
		if err := rl.sleepUntil(ctx, rl.lastRequest.Add(rl.minInterval)); err != nil {
			return err
		}
	}

	rl.shortUsage++
	rl.dailyUsage++
	rl.lastRequest = time.Now()
	return nil
}

// sleepUntil releases the lock while waiting so UpdateFromHeaders and
// Status stay responsive during a long quota wait.
func (rl *RateLimiter) sleepUntil(ctx context.Context, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return nil
	}
	rl.mu.Unlock()
	defer rl.mu.Lock()
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders syncs local counters with the authoritative usage
// Strava reports. Headers look like "34,512" for usage and "100,1000"
// for limits: short-window first, daily second.
func (rl *RateLimiter) UpdateFromHeaders(h http.Header) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if usage := h.Get("X-RateLimit-Usage"); usage != "" {
		if short, daily, ok := parseRateLimitPair(usage); ok {
			rl.shortUsage = short
			rl.dailyUsage = daily
		}
	}
	if limit := h.Get("X-RateLimit-Limit"); limit != "" {
		if short, daily, ok := parseRateLimitPair(limit); ok {
			rl.shortLimit = short
			rl.dailyLimit = daily
		}
	}
}

// Status returns remaining requests in each window
func (rl *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.shortLimit - rl.shortUsage, rl.dailyLimit - rl.dailyUsage
}

// Usage returns current usage counts
func (rl *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.shortUsage, rl.dailyUsage
}

func parseRateLimitPair(s string) (short, daily int, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	short, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	daily, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return short, daily, true
}
