package services

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
)

// bidBackend simulates the authoritative bid state. listedBid is what
// my-bookings reports for the caller; highestBid is the competing high bid
// an update must beat. The rank only moves once an update lands.
type bidBackend struct {
	mu         sync.Mutex
	listedBid  float64
	highestBid float64
	rank       int
}

func newBidFixture(t *testing.T) (*BidService, *bidBackend) {
	t.Helper()

	backend := &bidBackend{listedBid: 1000000, highestBid: 1000000, rank: 5}

	mux := http.NewServeMux()
	mux.HandleFunc("/my-bookings", func(w http.ResponseWriter, r *http.Request) {
		backend.mu.Lock()
		bid, rank := backend.listedBid, backend.rank
		backend.mu.Unlock()
		writeEnvelope(w, []models.Booking{
			{ID: 42, PlotID: 201, PlotNo: "C-201", Status: models.BookingStatusPending, BidAmount: &bid, Rank: &rank},
		})
	})
	mux.HandleFunc("/update-bid-amount", func(w http.ResponseWriter, r *http.Request) {
		amount, err := strconv.ParseFloat(r.URL.Query().Get("bid_amount"), 64)
		if err != nil {
			writeValidationFailure(w, map[string][]string{"bid_amount": {"Bid amount is not a number."}})
			return
		}
		backend.mu.Lock()
		if amount <= backend.highestBid {
			backend.mu.Unlock()
			writeValidationFailure(w, map[string][]string{"bid_amount": {"Bid has been outpaced."}})
			return
		}
		backend.listedBid = amount
		backend.highestBid = amount
		backend.rank = 1
		backend.mu.Unlock()
		writeEnvelope(w, map[string]string{"message": "Bid updated"})
	})

	return NewBidService(newStubUpstream(t, mux), NewAuditService(nil)), backend
}

func TestUpdateBidRefreshesRank(t *testing.T) {
	bids, backend := newBidFixture(t)
	session := testSession()

	result, err := bids.UpdateBid(context.Background(), session, 42, 1100000)
	require.NoError(t, err)

	// The rank comes from the post-update fetch, never guessed locally
	require.NotNil(t, result.Booking.Rank)
	assert.Equal(t, 1, *result.Booking.Rank)
	require.NotNil(t, result.Booking.BidAmount)
	assert.InDelta(t, 1100000, *result.Booking.BidAmount, 1e-9)

	backend.mu.Lock()
	assert.InDelta(t, 1100000, backend.highestBid, 1e-9)
	backend.mu.Unlock()
}

func TestUpdateBidRejectedLocallyBeforeUpstream(t *testing.T) {
	bids, backend := newBidFixture(t)
	session := testSession()

	cases := []float64{1050000, 900000, 1000000}
	for _, amount := range cases {
		_, err := bids.UpdateBid(context.Background(), session, 42, amount)
		require.Error(t, err, "bid %.0f must be rejected", amount)
		serviceErr, ok := err.(*shared.ServiceError)
		require.True(t, ok)
		assert.Equal(t, shared.ErrorCategoryValidation, serviceErr.Category)
	}

	// The backend never saw any of the invalid amounts
	backend.mu.Lock()
	assert.InDelta(t, 1000000, backend.highestBid, 1e-9)
	assert.Equal(t, 5, backend.rank)
	backend.mu.Unlock()
}

func TestUpdateBidSurfacesUpstreamRejection(t *testing.T) {
	bids, backend := newBidFixture(t)
	session := testSession()

	// Another bidder moved to 1,300,000 after the caller's last listing.
	// 1,100,000 passes the local rules against the listed 1,000,000 but the
	// backend rejects it.
	backend.mu.Lock()
	backend.highestBid = 1300000
	backend.mu.Unlock()

	_, err := bids.UpdateBid(context.Background(), session, 42, 1100000)
	require.Error(t, err)

	// The backend's own wording reaches the user verbatim
	messages := BidErrorMessages(err)
	require.Equal(t, []string{"Bid has been outpaced."}, messages)
}

func TestUpdateBidUnknownBooking(t *testing.T) {
	bids, _ := newBidFixture(t)
	session := testSession()

	_, err := bids.UpdateBid(context.Background(), session, 77, 1100000)
	require.Error(t, err)
	serviceErr, ok := err.(*shared.ServiceError)
	require.True(t, ok)
	assert.Equal(t, "BOOKING_NOT_FOUND", serviceErr.Code)
}
