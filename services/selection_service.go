package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
)

const selectionServiceName = "SelectionService"

// phaseExtents maps each phase to the map bounds the camera fits when the
// phase is chosen without a plot selection
var phaseExtents = map[string]models.BoundingBox{
	"1": {MinLng: 66.940, MinLat: 30.140, MaxLng: 66.985, MaxLat: 30.180},
	"2": {MinLng: 66.980, MinLat: 30.150, MaxLng: 67.030, MaxLat: 30.195},
	"3": {MinLng: 67.020, MinLat: 30.170, MaxLng: 67.070, MaxLat: 30.215},
	"4": {MinLng: 67.010, MinLat: 30.120, MaxLng: 67.060, MaxLat: 30.165},
	"5": {MinLng: 66.955, MinLat: 30.200, MaxLng: 67.005, MaxLat: 30.245},
	"6": {MinLng: 67.060, MinLat: 30.145, MaxLng: 67.110, MaxLat: 30.190},
}

// SelectionService maintains the single-plot selection per session. At most
// one plot is ever selected, and only a plot present in the session's visible
// set can be selected. Tapping the selected plot again deselects it; tapping
// a different plot replaces the selection.
type SelectionService struct {
	plots *PlotService

	selected map[uuid.UUID]int
	mutex    sync.RWMutex

	serviceMetrics *shared.ServiceMetrics
}

// NewSelectionService creates a selection service over the given plot views
func NewSelectionService(plots *PlotService) *SelectionService {
	return &SelectionService{
		plots:          plots,
		selected:       make(map[uuid.UUID]int),
		serviceMetrics: shared.NewServiceMetrics(selectionServiceName),
	}
}

// Select handles a tap on a plot. Returns the scene after the transition and
// whether the tap resulted in a selection (false means it deselected).
func (s *SelectionService) Select(session *models.Session, plotID int) (*models.SceneDescription, error) {
	start := time.Now()

	plot, err := s.plots.VisiblePlot(session.ID, plotID)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.mutex.Lock()
	current := s.selected[session.ID]
	var entered bool
	if current == plotID {
		delete(s.selected, session.ID)
	} else {
		s.selected[session.ID] = plotID
		entered = true
	}
	s.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  selectionServiceName,
		"operation":  "Select",
		"session_id": session.ID,
		"plot_id":    plotID,
		"plot_no":    plot.PlotNo,
		"selected":   entered,
	}).Info("Selection changed")

	scene := s.buildScene(session.ID, entered)
	if entered {
		scene.Camera = cameraForPlot(plot)
	}
	s.serviceMetrics.RecordRequest(true, time.Since(start))
	return scene, nil
}

// Clear drops the session's selection, if any
func (s *SelectionService) Clear(sessionID uuid.UUID) {
	s.mutex.Lock()
	delete(s.selected, sessionID)
	s.mutex.Unlock()
}

// SelectedPlot returns the currently selected plot for a session, or nil
func (s *SelectionService) SelectedPlot(sessionID uuid.UUID) *models.Plot {
	s.mutex.RLock()
	plotID, ok := s.selected[sessionID]
	s.mutex.RUnlock()
	if !ok {
		return nil
	}

	plot, err := s.plots.VisiblePlot(sessionID, plotID)
	if err != nil {
		return nil
	}
	return plot
}

// Scene returns the current scene without changing selection state. When a
// phase is given and nothing is selected, the camera fits the phase extent.
func (s *SelectionService) Scene(sessionID uuid.UUID, phase string) *models.SceneDescription {
	scene := s.buildScene(sessionID, false)
	if scene.SelectedPlotID == 0 && phase != "" {
		if extent, ok := phaseExtents[phase]; ok {
			scene.Camera = &models.CameraTarget{Center: extent.Center(), Bounds: &extent}
		}
	}
	return scene
}

// PruneInvisible drops the selection when its plot is no longer in the
// visible set. Wired as the plot service's visibility hook.
func (s *SelectionService) PruneInvisible(sessionID uuid.UUID, visible []models.Plot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	plotID, ok := s.selected[sessionID]
	if !ok {
		return
	}
	for i := range visible {
		if visible[i].ID == plotID {
			return
		}
	}

	delete(s.selected, sessionID)
	logrus.WithFields(logrus.Fields{
		"component":  selectionServiceName,
		"operation":  "PruneInvisible",
		"session_id": sessionID,
		"plot_id":    plotID,
	}).Info("Selection cleared after filtering out of view")
}

// buildScene assembles the declarative scene from the session's visible set
// and selection. justSelected drives the panel hint: the detail panel opens
// and the list collapses only on a transition into a selection.
func (s *SelectionService) buildScene(sessionID uuid.UUID, justSelected bool) *models.SceneDescription {
	view := s.plots.VisiblePlots(sessionID)

	s.mutex.RLock()
	selectedID := s.selected[sessionID]
	s.mutex.RUnlock()

	scene := &models.SceneDescription{
		Polygons:       make([]models.ScenePolygon, 0, len(view.Plots)),
		SelectedPlotID: selectedID,
		Panel: models.PanelHint{
			OpenDetail:   justSelected,
			CollapseList: justSelected,
		},
	}

	for i := range view.Plots {
		plot := &view.Plots[i]
		polygon := models.ScenePolygon{
			PlotID:   plot.ID,
			PlotNo:   plot.PlotNo,
			Category: plot.Category,
			Status:   plot.Status,
			Selected: plot.ID == selectedID,
			Color:    models.PolygonColor(plot, plot.ID == selectedID),
		}
		if boundary, err := models.ParseGeometry(plot.Geometry); err == nil && boundary != nil {
			polygon.Ring = boundary.Ring
		}
		scene.Polygons = append(scene.Polygons, polygon)
	}

	return scene
}

// cameraForPlot derives the zoom-to-plot camera target from the plot boundary
func cameraForPlot(plot *models.Plot) *models.CameraTarget {
	boundary, err := models.ParseGeometry(plot.Geometry)
	if err != nil || boundary == nil {
		return nil
	}
	bounds, ok := boundary.Bounds()
	if !ok {
		return nil
	}
	return &models.CameraTarget{Center: bounds.Center(), Bounds: &bounds}
}

// Metrics exposes the service metrics snapshot
func (s *SelectionService) Metrics() shared.MetricsSnapshot {
	return s.serviceMetrics.Snapshot()
}
