package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

const plotServiceName = "PlotService"

// plotView is the per-session map state: the active filter cascade, the last
// applied load, and the visible subset after local size filtering. The
// generation counter fences overlapping loads so a slow response can never
// overwrite the result of a newer filter change.
type plotView struct {
	filters    models.FilterState
	result     *models.PlotListResult
	visible    []models.Plot
	categories []string
	sizes      []string

	generation uint64
	cancel     context.CancelFunc
}

// PlotViewState is the snapshot handed to the handlers after a cascade change
type PlotViewState struct {
	Phase          string            `json:"phase"`
	Categories     []string          `json:"categories"`
	Sizes          []string          `json:"sizes"`
	ActiveCategory string            `json:"active_category,omitempty"`
	ActiveSizes    []string          `json:"active_sizes,omitempty"`
	Plots          []models.Plot     `json:"plots"`
	Counts         models.PlotCounts `json:"counts"`
}

// PlotService loads plot inventory from the expo backend and maintains one
// filtered view per session. Phase and category changes trigger an upstream
// reload; size toggles only refilter the already loaded list.
type PlotService struct {
	upstream *upstream.Client
	cache    *CacheService
	cacheTTL time.Duration

	views map[uuid.UUID]*plotView
	mutex sync.RWMutex

	// visibilityHook is invoked after every visible-set change so the
	// selection layer can drop a plot that filtered out of view
	visibilityHook func(sessionID uuid.UUID, visible []models.Plot)

	serviceMetrics *shared.ServiceMetrics
}

// NewPlotService creates a plot service backed by the given upstream client
// and response cache
func NewPlotService(client *upstream.Client, cache *CacheService, cacheTTL time.Duration) *PlotService {
	return &PlotService{
		upstream:       client,
		cache:          cache,
		cacheTTL:       cacheTTL,
		views:          make(map[uuid.UUID]*plotView),
		serviceMetrics: shared.NewServiceMetrics(plotServiceName),
	}
}

// SetVisibilityHook registers the callback run after each visible-set change
func (s *PlotService) SetVisibilityHook(hook func(sessionID uuid.UUID, visible []models.Plot)) {
	s.visibilityHook = hook
}

func (s *PlotService) view(sessionID uuid.UUID) *plotView {
	if v, ok := s.views[sessionID]; ok {
		return v
	}
	v := &plotView{filters: models.NewFilterState()}
	s.views[sessionID] = v
	return v
}

// SetPhase selects a phase, clearing category and size state, then fetches
// the phase's category options and its plot inventory
func (s *PlotService) SetPhase(ctx context.Context, session *models.Session, phase string) (*PlotViewState, error) {
	start := time.Now()

	if phase == "" {
		err := shared.NewValidationError(plotServiceName, "SetPhase", map[string][]string{
			"phase": {"A phase must be selected."},
		})
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.mutex.Lock()
	view := s.view(session.ID)
	view.filters.SetPhase(phase)
	view.categories = nil
	view.sizes = nil
	gen, loadCtx := s.beginLoadLocked(ctx, view)
	s.mutex.Unlock()

	categories, err := s.upstream.PhaseCategories(loadCtx, session.UpstreamToken, phase)

	s.mutex.Lock()
	if view.generation != gen {
		state := s.snapshotLocked(view)
		s.mutex.Unlock()
		s.serviceMetrics.RecordRequest(true, time.Since(start))
		return state, nil
	}
	if err != nil {
		visible := s.clearLoadedLocked(view)
		s.mutex.Unlock()
		s.notifyVisibility(session.ID, visible)
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}
	view.categories = categories
	s.mutex.Unlock()

	state, err := s.load(loadCtx, session, view, gen)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(start))
	return state, err
}

// SetCategory selects the single active category within the current phase,
// clearing size state, then fetches the size options and reloads the plots
func (s *PlotService) SetCategory(ctx context.Context, session *models.Session, category string) (*PlotViewState, error) {
	start := time.Now()

	s.mutex.Lock()
	view := s.view(session.ID)
	phase := view.filters.Phase
	offered := append([]string(nil), view.categories...)
	s.mutex.Unlock()

	if phase == "" {
		err := shared.NewValidationError(plotServiceName, "SetCategory", map[string][]string{
			"phase": {"Select a phase before choosing a category."},
		})
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}
	if !containsOption(offered, category) {
		err := shared.NewValidationError(plotServiceName, "SetCategory", map[string][]string{
			"category": {fmt.Sprintf("Category %q is not offered in this phase.", category)},
		})
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.mutex.Lock()
	view.filters.SetCategory(category)
	view.sizes = nil
	gen, loadCtx := s.beginLoadLocked(ctx, view)
	s.mutex.Unlock()

	sizes, err := s.upstream.PhaseSizes(loadCtx, session.UpstreamToken, phase, category)

	s.mutex.Lock()
	if view.generation != gen {
		state := s.snapshotLocked(view)
		s.mutex.Unlock()
		s.serviceMetrics.RecordRequest(true, time.Since(start))
		return state, nil
	}
	if err != nil {
		visible := s.clearLoadedLocked(view)
		s.mutex.Unlock()
		s.notifyVisibility(session.ID, visible)
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}
	view.sizes = sizes
	s.mutex.Unlock()

	state, err := s.load(loadCtx, session, view, gen)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(start))
	return state, err
}

// ToggleSize flips one size flag and refilters the loaded list locally.
// No upstream round trip is made.
func (s *PlotService) ToggleSize(session *models.Session, size string) (*PlotViewState, error) {
	s.mutex.Lock()
	view := s.view(session.ID)

	if view.filters.ActiveCategory() == "" {
		s.mutex.Unlock()
		return nil, shared.NewValidationError(plotServiceName, "ToggleSize", map[string][]string{
			"category": {"Select a category before filtering by size."},
		})
	}
	if !containsOption(view.sizes, size) {
		s.mutex.Unlock()
		return nil, shared.NewValidationError(plotServiceName, "ToggleSize", map[string][]string{
			"size": {fmt.Sprintf("Size %q is not offered for this category.", size)},
		})
	}

	view.filters.ToggleSize(size)
	s.refilterLocked(view)
	visible := append([]models.Plot(nil), view.visible...)
	state := s.snapshotLocked(view)
	s.mutex.Unlock()

	s.notifyVisibility(session.ID, visible)
	return state, nil
}

// beginLoadLocked opens a new load generation for a cascade change. Any
// in-flight fetch for the view is superseded and its context canceled; the
// returned stamp fences both the option fetch and the plot fetch that follow.
// Caller holds the mutex.
func (s *PlotService) beginLoadLocked(ctx context.Context, view *plotView) (uint64, context.Context) {
	view.generation++
	if view.cancel != nil {
		view.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	view.cancel = cancel
	return view.generation, loadCtx
}

// clearLoadedLocked empties the loaded result and the visible set after a
// failed load so the previous filter's plots can never linger under the new
// filter labels. Caller holds the mutex; the returned slice feeds the
// visibility hook so a now-hidden selection is pruned too.
func (s *PlotService) clearLoadedLocked(view *plotView) []models.Plot {
	view.result = nil
	s.refilterLocked(view)
	return append([]models.Plot(nil), view.visible...)
}

// load fetches the plot list for the view's current phase and category,
// consulting the memory cache and the database cache before going upstream.
// The generation fence guarantees that only the newest load applies: a
// response arriving after a further filter change is discarded and the
// current view state returned instead. A failed load leaves an empty view,
// never the previous filter's inventory.
func (s *PlotService) load(loadCtx context.Context, session *models.Session, view *plotView, gen uint64) (*PlotViewState, error) {
	s.mutex.Lock()
	phase := view.filters.Phase
	category := view.filters.ActiveCategory()
	s.mutex.Unlock()

	result, err := s.fetchPlots(loadCtx, session.UpstreamToken, phase, category)

	s.mutex.Lock()
	if view.generation != gen {
		// A newer filter change superseded this load; its result wins.
		state := s.snapshotLocked(view)
		s.mutex.Unlock()
		logrus.WithFields(logrus.Fields{
			"component":  plotServiceName,
			"operation":  "load",
			"session_id": session.ID,
			"phase":      phase,
			"category":   category,
		}).Debug("Discarding superseded plot load")
		return state, nil
	}

	if err != nil {
		visible := s.clearLoadedLocked(view)
		s.mutex.Unlock()
		s.notifyVisibility(session.ID, visible)
		return nil, err
	}

	view.result = result
	s.refilterLocked(view)
	visible := append([]models.Plot(nil), view.visible...)
	state := s.snapshotLocked(view)
	s.mutex.Unlock()

	s.notifyVisibility(session.ID, visible)
	return state, nil
}

// fetchPlots resolves a plot list through the cache hierarchy
func (s *PlotService) fetchPlots(ctx context.Context, token, phase, category string) (*models.PlotListResult, error) {
	filterKey := plotFilterKey(phase, category)

	if cached, found := s.cache.Get(filterKey); found {
		if result, ok := cached.(*models.PlotListResult); ok {
			return result, nil
		}
	}

	if record, err := s.cache.GetPlotPayload(ctx, filterKey); err == nil && record != nil {
		var result models.PlotListResult
		if err := json.Unmarshal(record.Payload, &result); err == nil {
			s.cache.SetWithTTL(filterKey, &result, s.cacheTTL)
			return &result, nil
		}
		logrus.WithFields(logrus.Fields{
			"component":  plotServiceName,
			"operation":  "fetchPlots",
			"filter_key": filterKey,
		}).Warn("Discarding undecodable cached plot payload")
	}

	result, err := s.upstream.FilteredPlots(ctx, token, phase, category, "")
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(filterKey, result, s.cacheTTL)
	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.StorePlotPayload(ctx, filterKey, payload, s.cacheTTL); err != nil {
			logrus.WithFields(logrus.Fields{
				"component":  plotServiceName,
				"operation":  "fetchPlots",
				"filter_key": filterKey,
				"error":      err.Error(),
			}).Warn("Failed to persist plot payload")
		}
	}

	return result, nil
}

func plotFilterKey(phase, category string) string {
	return fmt.Sprintf("plots|%s|%s", phase, category)
}

// refilterLocked recomputes the visible subset from the loaded result and the
// size flags. Caller holds the mutex.
func (s *PlotService) refilterLocked(view *plotView) {
	view.visible = view.visible[:0]
	if view.result == nil {
		return
	}
	for i := range view.result.Plots {
		plot := &view.result.Plots[i]
		if view.filters.Matches(plot) {
			view.visible = append(view.visible, *plot)
		}
	}
}

// snapshotLocked builds the handler-facing view state. Caller holds the mutex.
func (s *PlotService) snapshotLocked(view *plotView) *PlotViewState {
	state := &PlotViewState{
		Phase:          view.filters.Phase,
		Categories:     append([]string(nil), view.categories...),
		Sizes:          append([]string(nil), view.sizes...),
		ActiveCategory: view.filters.ActiveCategory(),
		ActiveSizes:    view.filters.ActiveSizes(),
		Plots:          append([]models.Plot(nil), view.visible...),
	}
	if view.result != nil {
		state.Counts = view.result.Counts
	}
	if state.Plots == nil {
		state.Plots = []models.Plot{}
	}
	return state
}

func (s *PlotService) notifyVisibility(sessionID uuid.UUID, visible []models.Plot) {
	if s.visibilityHook != nil {
		s.visibilityHook(sessionID, visible)
	}
}

// VisiblePlots returns the current filtered view for a session
func (s *PlotService) VisiblePlots(sessionID uuid.UUID) *PlotViewState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshotLocked(s.view(sessionID))
}

// VisiblePlot finds one plot in the session's visible set
func (s *PlotService) VisiblePlot(sessionID uuid.UUID, plotID int) (*models.Plot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	view, ok := s.views[sessionID]
	if !ok {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "PLOT_NOT_VISIBLE",
			"Plot is not in the current view", plotServiceName, "VisiblePlot", false, nil)
	}
	for i := range view.visible {
		if view.visible[i].ID == plotID {
			plot := view.visible[i]
			return &plot, nil
		}
	}
	return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "PLOT_NOT_VISIBLE",
		"Plot is not in the current view", plotServiceName, "VisiblePlot", false, nil)
}

// DropView discards a session's view state. Called at logout and by the
// idle sweep.
func (s *PlotService) DropView(sessionID uuid.UUID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if view, ok := s.views[sessionID]; ok {
		if view.cancel != nil {
			view.cancel()
		}
		delete(s.views, sessionID)
	}
}

// ViewCount reports how many sessions hold plot views
func (s *PlotService) ViewCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.views)
}

// Metrics exposes the service metrics snapshot
func (s *PlotService) Metrics() shared.MetricsSnapshot {
	return s.serviceMetrics.Snapshot()
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
