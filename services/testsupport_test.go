package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/upstream"
)

func newTestUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// newStubUpstream starts an in-process expo backend and returns a client
// pointed at it with rate limiting disabled
func newStubUpstream(t *testing.T, mux *http.ServeMux) *upstream.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := upstream.NewClient(server.URL, 5*time.Second)
	client.SetRateLimit(0)
	return client
}

func writeEnvelope(w http.ResponseWriter, data interface{}) {
	payload, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    json.RawMessage(payload),
	})
}

func writeValidationFailure(w http.ResponseWriter, errors map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"errors":  errors,
	})
}

func testSession() *models.Session {
	return &models.Session{
		ID:            uuid.New(),
		UpstreamToken: "stub-token",
		User:          models.User{ID: 7, Name: "Test User", Role: models.RoleCustomer},
		CreatedAt:     time.Now(),
		LastSeenAt:    time.Now(),
	}
}

func stubPlots() []models.Plot {
	return []models.Plot{
		{ID: 101, PlotNo: "R-101", Phase: "4", Category: models.CategoryResidential, Size: "5 Marla", TokenAmount: 250000, Status: models.PlotStatusAvailable},
		{ID: 102, PlotNo: "R-102", Phase: "4", Category: models.CategoryResidential, Size: "10 Marla", TokenAmount: 350000, Status: models.PlotStatusAvailable},
		{ID: 201, PlotNo: "C-201", Phase: "4", Category: models.CategoryCommercial, Size: "8 Marla", TokenAmount: 500000, Status: models.PlotStatusBidding},
		{ID: 202, PlotNo: "C-202", Phase: "4", Category: models.CategoryCommercial, Size: "8 Marla", TokenAmount: 500000, Status: models.PlotStatusSold},
	}
}

// plotStubMux serves the filter cascade endpoints from the fixed plot set
func plotStubMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/plot-categories", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, []string{models.CategoryResidential, models.CategoryCommercial})
	})
	mux.HandleFunc("/plot-sizes", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") == models.CategoryCommercial {
			writeEnvelope(w, []string{"8 Marla"})
			return
		}
		writeEnvelope(w, []string{"5 Marla", "10 Marla"})
	})
	mux.HandleFunc("/filtered-plots", func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		var plots []models.Plot
		for _, plot := range stubPlots() {
			if category == "" || plot.Category == category {
				plots = append(plots, plot)
			}
		}
		writeEnvelope(w, models.PlotListResult{
			Plots:  plots,
			Counts: models.PlotCounts{TotalCount: len(plots)},
		})
	})

	return mux
}

// newLoadedPlotService spins up a plot service with the stub inventory
// already loaded for the test session
func newLoadedPlotService(t *testing.T) (*PlotService, *models.Session) {
	t.Helper()

	client := newStubUpstream(t, plotStubMux())
	cache := NewCacheServiceWithConfig(nil, time.Minute, 100)
	plots := NewPlotService(client, cache, time.Minute)

	session := testSession()
	_, err := plots.SetPhase(context.Background(), session, "4")
	if err != nil {
		t.Fatalf("loading stub plots: %v", err)
	}
	return plots, session
}
