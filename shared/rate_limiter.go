package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// UpstreamRateLimiter enforces a minimum delay between calls to the expo
// backend. Background jobs fan out many requests (rank refresh walks every
// active bidder); the limiter keeps that polite.
type UpstreamRateLimiter struct {
	minimumDelay    time.Duration
	lastRequestTime time.Time
	mutex           sync.Mutex
	requestCount    int64
}

// NewUpstreamRateLimiter creates a rate limiter with the specified minimum delay
func NewUpstreamRateLimiter(minimumDelay time.Duration) *UpstreamRateLimiter {
	return &UpstreamRateLimiter{
		minimumDelay:    minimumDelay,
		lastRequestTime: time.Now(),
		requestCount:    0,
	}
}

// EnforceRateLimit blocks until the minimum delay has elapsed since the last request
func (limiter *UpstreamRateLimiter) EnforceRateLimit() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	elapsedTime := time.Since(limiter.lastRequestTime)
	if elapsedTime < limiter.minimumDelay {
		remainingDelay := limiter.minimumDelay - elapsedTime

		logrus.WithFields(logrus.Fields{
			"component":       "UpstreamRateLimiter",
			"elapsed_time":    elapsedTime,
			"minimum_delay":   limiter.minimumDelay,
			"remaining_delay": remainingDelay,
			"request_count":   limiter.requestCount + 1,
		}).Debug("Enforcing rate limit delay")

		time.Sleep(remainingDelay)
	}

	limiter.lastRequestTime = time.Now()
	limiter.requestCount++
}

// GetRequestCount returns the total number of requests processed
func (limiter *UpstreamRateLimiter) GetRequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}

// UpdateMinimumDelay updates the minimum delay between requests
func (limiter *UpstreamRateLimiter) UpdateMinimumDelay(newDelay time.Duration) {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	oldDelay := limiter.minimumDelay
	limiter.minimumDelay = newDelay

	logrus.WithFields(logrus.Fields{
		"component": "UpstreamRateLimiter",
		"old_delay": oldDelay,
		"new_delay": newDelay,
	}).Info("Updated rate limiter minimum delay")
}
