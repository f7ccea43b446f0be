package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/upstream"
)

func writeJobEnvelope(w http.ResponseWriter, data interface{}) {
	payload, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    json.RawMessage(payload),
	})
}

// newRankRefreshFixture starts a stub backend counting /my-bookings hits and
// returns a logged-in session service pointed at it
func newRankRefreshFixture(t *testing.T, hits *int64) (*services.SessionService, *services.CacheService, *upstream.Client, *models.Session) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJobEnvelope(w, upstream.AuthResult{
			Token: "upstream-token",
			User:  models.User{ID: 7, Name: "Bidder", Role: models.RoleCustomer},
		})
	})
	mux.HandleFunc("/my-bookings", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		bid := 1200000.0
		rank := 2
		writeJobEnvelope(w, []models.Booking{
			{ID: 9, PlotID: 201, PlotNo: "C-201", Status: models.BookingStatusPending, BidAmount: &bid, Rank: &rank},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := upstream.NewClient(server.URL, 5*time.Second)
	client.SetRateLimit(0)

	sessions := services.NewSessionService(client, services.NewAuditService(nil))
	result, err := sessions.Login(context.Background(), "bidder@example.com", "pw")
	require.NoError(t, err)
	session, ok := sessions.Lookup(result.SessionToken)
	require.True(t, ok)

	cache := services.NewCacheServiceWithConfig(nil, time.Minute, 100)
	return sessions, cache, client, session
}

func TestRankRefreshCachesBiddingSessions(t *testing.T) {
	var hits int64
	sessions, cache, client, session := newRankRefreshFixture(t, &hits)

	job := NewRankRefreshJob(sessions, cache, client, time.Minute)
	job.Run()

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	cached, ok := cache.Get(services.BookingsCacheKey(session.ID))
	require.True(t, ok)
	bookings, ok := cached.([]models.Booking)
	require.True(t, ok)
	require.Len(t, bookings, 1)
	require.NotNil(t, bookings[0].Rank)
	assert.Equal(t, 2, *bookings[0].Rank)
}

func TestRankRefreshSkipsSessionsWithoutBids(t *testing.T) {
	var hits int64
	sessions, cache, client, session := newRankRefreshFixture(t, &hits)

	// The last known list carries no bidding booking, so there is no rank
	// to refresh for this session
	cache.SetWithTTL(services.BookingsCacheKey(session.ID),
		[]models.Booking{{ID: 9, PlotID: 101, PlotNo: "R-101", Status: models.BookingStatusCompleted}},
		time.Minute)

	job := NewRankRefreshJob(sessions, cache, client, time.Minute)
	job.Run()

	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}
