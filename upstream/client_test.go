package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 5*time.Second)
	client.SetRateLimit(0)
	return client
}

func categoryOf(t *testing.T, err error) shared.ErrorCategory {
	t.Helper()
	serviceErr, ok := err.(*shared.ServiceError)
	require.True(t, ok, "expected *shared.ServiceError, got %T", err)
	return serviceErr.Category
}

func TestFilteredPlotsDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "4", r.URL.Query().Get("phase"))
		assert.Equal(t, "Residential", r.URL.Query().Get("category"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": models.PlotListResult{
				Plots:  []models.Plot{{ID: 1, PlotNo: "R-1", Category: "Residential"}},
				Counts: models.PlotCounts{TotalCount: 1},
			},
		})
	}))

	result, err := client.FilteredPlots(context.Background(), "token-1", "4", "Residential", "")
	require.NoError(t, err)
	require.Len(t, result.Plots, 1)
	assert.Equal(t, "R-1", result.Plots[0].PlotNo)
	assert.Equal(t, 1, result.Counts.TotalCount)
}

func TestUnauthorizedMapsToAuthentication(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.FilteredPlots(context.Background(), "stale", "4", "", "")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryAuthentication, categoryOf(t, err))
}

func TestForbiddenMapsToAuthorization(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.DashboardStats(context.Background(), "customer-token")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryAuthorization, categoryOf(t, err))
}

func TestUnprocessableCarriesFieldErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"errors": map[string][]string{
				"bid_amount": {"Bid must be higher than the current bid."},
			},
		})
	}))

	err := client.UpdateBidAmount(context.Background(), "token", 42, 900000)
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryValidation, categoryOf(t, err))

	serviceErr := err.(*shared.ServiceError)
	assert.Equal(t, []string{"Bid must be higher than the current bid."}, serviceErr.FieldMessages("bid_amount"))
}

func TestServerErrorIsRetryableNetwork(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.MyBookings(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryNetwork, categoryOf(t, err))
	assert.True(t, shared.IsRetryableError(err))
}

func TestEnvelopeFailureMapsToValidation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Plot is already reserved.",
		})
	}))

	_, err := client.HoldPlot(context.Background(), "token", 101)
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryValidation, categoryOf(t, err))
	assert.Contains(t, err.Error(), "Plot is already reserved.")
}

func TestMalformedBodyMapsToShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>"))
	}))

	_, err := client.MyBookings(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryShape, categoryOf(t, err))
}

func TestDataSchemaMismatchMapsToShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    "just a string",
		})
	}))

	_, err := client.MyBookings(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryShape, categoryOf(t, err))
}

func TestPhaseOptionsDecodeBareAndWrapped(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plot-categories":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    []string{"Residential", "Commercial"},
			})
		case "/plot-sizes":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string][]string{"values": {"5 Marla", "10 Marla"}},
			})
		}
	}))

	categories, err := client.PhaseCategories(context.Background(), "token", "4")
	require.NoError(t, err)
	assert.Equal(t, []string{"Residential", "Commercial"}, categories)

	sizes, err := client.PhaseSizes(context.Background(), "token", "4", "Residential")
	require.NoError(t, err)
	assert.Equal(t, []string{"5 Marla", "10 Marla"}, sizes)
}

func TestUnreachableHostIsRetryable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond)
	client.SetRateLimit(0)

	_, err := client.MyBookings(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryNetwork, categoryOf(t, err))
	assert.True(t, shared.IsRetryableError(err))
}
