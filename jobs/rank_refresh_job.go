package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

// RankRefreshJob periodically re-fetches bookings for sessions holding
// commercial bid bookings so the ranks served from the snapshot cache stay
// close to the backend's view between explicit user refreshes. Sessions whose
// last known bookings carry no bids are skipped until their booking list
// changes. The circuit breaker stops the job from hammering a degraded
// backend.
type RankRefreshJob struct {
	SessionService *services.SessionService
	CacheService   *services.CacheService
	Upstream       *upstream.Client
	Interval       time.Duration

	isolation *shared.UpstreamIsolationHandler
}

func NewRankRefreshJob(sessionService *services.SessionService, cacheService *services.CacheService, client *upstream.Client, interval time.Duration) *RankRefreshJob {
	return &RankRefreshJob{
		SessionService: sessionService,
		CacheService:   cacheService,
		Upstream:       client,
		Interval:       interval,
		isolation:      shared.NewUpstreamIsolationHandler("RankRefreshJob", 0.5),
	}
}

func (j *RankRefreshJob) Start() {
	logrus.Infof("Starting Rank Refresh Job (runs every %v)...", j.Interval)
	ticker := time.NewTicker(j.Interval)

	go func() {
		for range ticker.C {
			j.Run()
		}
	}()
}

func (j *RankRefreshJob) Run() {
	startTime := time.Now()
	sessions := j.SessionService.ActiveSessions()
	if len(sessions) == 0 {
		return
	}

	logrus.Infof("Running Rank Refresh Job for %d sessions...", len(sessions))

	refreshed := 0
	skipped := 0
	for _, session := range sessions {
		session := session
		key := services.BookingsCacheKey(session.ID)

		// Ranks only move for bidding bookings; a session whose last known
		// list has none gets refreshed again once the booking read path or a
		// new reservation re-caches a list that does.
		if cached, ok := j.CacheService.Get(key); ok {
			if bookings, ok := cached.([]models.Booking); ok && !hasBiddingBooking(bookings) {
				skipped++
				continue
			}
		}

		err := j.isolation.Execute("RefreshRanks", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			bookings, err := j.Upstream.MyBookings(ctx, session.UpstreamToken)
			if err != nil {
				return err
			}
			j.CacheService.SetWithTTL(key, bookings, 2*j.Interval)
			return nil
		})
		if err != nil {
			if shared.IsRetryableError(err) {
				logrus.Warnf("Rank Refresh Job: refresh failed for session %s: %v", session.ID, err)
				continue
			}
			// Non-retryable usually means the upstream token died; leave the
			// session to the idle sweep
			logrus.Debugf("Rank Refresh Job: skipping session %s: %v", session.ID, err)
			continue
		}
		refreshed++
	}

	logrus.Infof("Rank Refresh Job completed: refreshed %d, skipped %d of %d sessions (took %v)",
		refreshed, skipped, len(sessions), time.Since(startTime))
}

func hasBiddingBooking(bookings []models.Booking) bool {
	for i := range bookings {
		if bookings[i].IsBidding() {
			return true
		}
	}
	return false
}
