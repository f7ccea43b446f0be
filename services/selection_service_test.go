package services

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafHaider007/expo-portal/models"
)

func newSelectionFixture(t *testing.T) (*PlotService, *SelectionService, *models.Session) {
	t.Helper()
	plots, session := newLoadedPlotService(t)
	selection := NewSelectionService(plots)
	plots.SetVisibilityHook(selection.PruneInvisible)
	return plots, selection, session
}

func TestSelectAndDeselect(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	scene, err := selection.Select(session, 101)
	require.NoError(t, err)
	assert.Equal(t, 101, scene.SelectedPlotID)
	assert.True(t, scene.Panel.OpenDetail)
	assert.True(t, scene.Panel.CollapseList)

	// Tapping the same plot again deselects
	scene, err = selection.Select(session, 101)
	require.NoError(t, err)
	assert.Equal(t, 0, scene.SelectedPlotID)
	assert.False(t, scene.Panel.OpenDetail)
}

func TestSelectReplacesPrevious(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	_, err := selection.Select(session, 101)
	require.NoError(t, err)

	scene, err := selection.Select(session, 201)
	require.NoError(t, err)
	assert.Equal(t, 201, scene.SelectedPlotID)

	selectedCount := 0
	for _, polygon := range scene.Polygons {
		if polygon.Selected {
			selectedCount++
		}
	}
	assert.Equal(t, 1, selectedCount)
}

func TestSelectRejectsInvisiblePlot(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	_, err := selection.Select(session, 999)
	require.Error(t, err)
	assert.Nil(t, selection.SelectedPlot(session.ID))
}

func TestSelectionPrunedWhenFilteredOut(t *testing.T) {
	plots, selection, session := newSelectionFixture(t)

	_, err := plots.SetCategory(context.Background(), session, models.CategoryResidential)
	require.NoError(t, err)

	_, err = selection.Select(session, 102)
	require.NoError(t, err)
	require.NotNil(t, selection.SelectedPlot(session.ID))

	// R-102 is 10 Marla; filtering to 5 Marla pushes it out of view
	_, err = plots.ToggleSize(session, "5 Marla")
	require.NoError(t, err)
	assert.Nil(t, selection.SelectedPlot(session.ID))

	scene := selection.Scene(session.ID, "")
	assert.Equal(t, 0, scene.SelectedPlotID)
}

func TestSelectionSurvivesFilterWhenStillVisible(t *testing.T) {
	plots, selection, session := newSelectionFixture(t)

	_, err := plots.SetCategory(context.Background(), session, models.CategoryResidential)
	require.NoError(t, err)

	_, err = selection.Select(session, 101)
	require.NoError(t, err)

	// R-101 is 5 Marla and stays in view
	_, err = plots.ToggleSize(session, "5 Marla")
	require.NoError(t, err)
	require.NotNil(t, selection.SelectedPlot(session.ID))
	assert.Equal(t, 101, selection.SelectedPlot(session.ID).ID)
}

func TestSceneColorsAndStatuses(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	_, err := selection.Select(session, 101)
	require.NoError(t, err)

	scene := selection.Scene(session.ID, "")
	colors := make(map[int]string)
	for _, polygon := range scene.Polygons {
		colors[polygon.PlotID] = polygon.Color
	}

	assert.Equal(t, models.ColorSelected, colors[101])
	assert.Equal(t, models.ColorResidential, colors[102])
	assert.Equal(t, models.ColorCommercial, colors[201])
	assert.Equal(t, models.ColorUnavailable, colors[202]) // sold
}

func TestSceneZoomToPhaseWithoutSelection(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	scene := selection.Scene(session.ID, "4")
	require.NotNil(t, scene.Camera)
	assert.NotNil(t, scene.Camera.Bounds)

	// A selection takes precedence over the phase extent
	_, err := selection.Select(session, 101)
	require.NoError(t, err)
	scene = selection.Scene(session.ID, "4")
	assert.Equal(t, 101, scene.SelectedPlotID)
	assert.Nil(t, scene.Camera)
}

func TestClearSelection(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	_, err := selection.Select(session, 201)
	require.NoError(t, err)

	selection.Clear(session.ID)
	assert.Nil(t, selection.SelectedPlot(session.ID))
}

func TestAtMostOneSelectedProperty(t *testing.T) {
	_, selection, session := newSelectionFixture(t)

	visibleIDs := []int{101, 102, 201, 202}

	properties := gopter.NewProperties(nil)
	properties.Property("any tap sequence leaves at most one plot selected", prop.ForAll(
		func(taps []int) bool {
			selection.Clear(session.ID)
			for _, tap := range taps {
				plotID := visibleIDs[tap%len(visibleIDs)]
				scene, err := selection.Select(session, plotID)
				if err != nil {
					return false
				}

				selectedCount := 0
				for _, polygon := range scene.Polygons {
					if polygon.Selected {
						selectedCount++
					}
				}
				if selectedCount > 1 {
					return false
				}
				if scene.SelectedPlotID != 0 && selectedCount != 1 {
					return false
				}
				if scene.SelectedPlotID == 0 && selectedCount != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
