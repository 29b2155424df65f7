package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter manages request rate limiting and quotas per client. Windows
// are fixed: a minute window opens with the first request after the previous
// one closed, hours likewise, days follow the calendar.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int

	maxRequestsPerDay int
	maxDataPerDay     int64 // in bytes

	userRequests map[string]*UserUsage
	now          func() time.Time
}

// UserUsage tracks usage for a specific client.
type UserUsage struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsToday      int
	DataToday          int64

	minuteStart time.Time
	hourStart   time.Time
	dayStart    time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits. A limit
// of zero disables that check.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		userRequests:      make(map[string]*UserUsage),
		now:               time.Now,
	}
}

// CheckRateLimit checks if a request from the given client is allowed and,
// if so, counts it.
func (rl *RateLimiter) CheckRateLimit(userID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage := rl.getOrCreateUserUsage(userID, now)

	rl.resetCountersIfNeeded(usage, now)

	if err := rl.checkRateLimits(usage, now); err != nil {
		return err
	}
	if err := rl.checkDailyQuotas(usage, dataSize, now); err != nil {
		return err
	}

	usage.RequestsLastMinute++
	usage.RequestsLastHour++
	usage.RequestsToday++
	usage.DataToday += dataSize
	return nil
}

func (rl *RateLimiter) resetCountersIfNeeded(usage *UserUsage, now time.Time) {
	if !sameDay(usage.dayStart, now) {
		usage.RequestsToday = 0
		usage.DataToday = 0
		usage.dayStart = now
	}

	if now.Sub(usage.minuteStart) >= time.Minute {
		usage.RequestsLastMinute = 0
		usage.minuteStart = now
	}
	if now.Sub(usage.hourStart) >= time.Hour {
		usage.RequestsLastHour = 0
		usage.hourStart = now
	}
}

func sameDay(a, b time.Time) bool {
	y0, m0, d0 := a.Date()
	y1, m1, d1 := b.Date()
	return y0 == y1 && m0 == m1 && d0 == d1
}

func (rl *RateLimiter) checkRateLimits(usage *UserUsage, now time.Time) error {
	if rl.requestsPerMinute > 0 && usage.RequestsLastMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.minuteStart),
		}
	}

	if rl.requestsPerHour > 0 && usage.RequestsLastHour >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: time.Hour - now.Sub(usage.hourStart),
		}
	}

	return nil
}

func (rl *RateLimiter) checkDailyQuotas(usage *UserUsage, dataSize int64, now time.Time) error {
	resets := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	if rl.maxRequestsPerDay > 0 && usage.RequestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(usage.RequestsToday),
			Resets: resets,
		}
	}

	if rl.maxDataPerDay > 0 && usage.DataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  rl.maxDataPerDay,
			Used:   usage.DataToday,
			Resets: resets,
		}
	}

	return nil
}

func (rl *RateLimiter) getOrCreateUserUsage(userID string, now time.Time) *UserUsage {
	usage, exists := rl.userRequests[userID]
	if !exists {
		usage = &UserUsage{minuteStart: now, hourStart: now, dayStart: now}
		rl.userRequests[userID] = usage
	}
	return usage
}

// GetUsage returns a copy of the current usage for a client.
func (rl *RateLimiter) GetUsage(userID string) UserUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if usage, exists := rl.userRequests[userID]; exists {
		return *usage
	}
	return UserUsage{}
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
