package models

// SceneDescription is a declarative snapshot of the map view: every visible
// polygon with its display color, the current selection and the camera
// target. A rendering adapter consumes it as-is; no map instance is ever
// mutated from selection logic.
type SceneDescription struct {
	Polygons       []ScenePolygon `json:"polygons"`
	SelectedPlotID int            `json:"selected_plot_id"` // 0 when nothing is selected
	Camera         *CameraTarget  `json:"camera,omitempty"`
	Panel          PanelHint      `json:"panel"`
}

// ScenePolygon is one plot boundary ready for rendering
type ScenePolygon struct {
	PlotID   int          `json:"plot_id"`
	PlotNo   string       `json:"plot_no"`
	Category string       `json:"category"`
	Status   string       `json:"status"`
	Selected bool         `json:"selected"`
	Color    string       `json:"color"`
	Ring     []Coordinate `json:"ring,omitempty"`
}

// CameraTarget is a derived camera operation: center plus the bounds the
// viewport should fit
type CameraTarget struct {
	Center Coordinate   `json:"center"`
	Bounds *BoundingBox `json:"bounds,omitempty"`
}

// PanelHint tells the caller what panel side effect accompanies the current
// selection state: the detail panel opens on desktop, the list collapses on
// mobile. Emitted on every transition into a selection.
type PanelHint struct {
	OpenDetail   bool `json:"open_detail"`
	CollapseList bool `json:"collapse_list"`
}

// Display colors keyed by category and selection state
const (
	ColorSelected    = "#1d4ed8"
	ColorResidential = "#16a34a"
	ColorCommercial  = "#d97706"
	ColorUnavailable = "#9ca3af"
)

// PolygonColor picks the display color for a plot given its selection state
func PolygonColor(plot *Plot, selected bool) string {
	if selected {
		return ColorSelected
	}
	if !plot.IsSelectable() {
		return ColorUnavailable
	}
	if plot.IsCommercial() {
		return ColorCommercial
	}
	return ColorResidential
}
