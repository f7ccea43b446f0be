package models

import (
	"encoding/json"
	"strings"
)

// Plot categories as reported by the expo backend
const (
	CategoryResidential = "Residential"
	CategoryCommercial  = "Commercial"
)

// Plot statuses. Status determines which user actions are offered;
// category determines bidding eligibility (only Commercial plots bid).
const (
	PlotStatusAvailable = "Available"
	PlotStatusReserved  = "Reserved"
	PlotStatusSold      = "Sold"
	PlotStatusBidding   = "Bidding"
)

type Plot struct {
	ID       int    `json:"id"`
	PlotNo   string `json:"plot_no"`
	Phase    string `json:"phase"`
	Sector   string `json:"sector"`
	Street   string `json:"street_no"`
	Category string `json:"category"`

	Size      string `json:"size"`
	Dimension string `json:"dimension"`

	BasePrice   float64 `json:"base_price"`
	TokenAmount float64 `json:"token_amount"`

	Status  string  `json:"status"`
	Remarks *string `json:"remarks,omitempty"`

	// Raw GeoJSON geometry as delivered upstream. May be absent, and may be
	// in a projected coordinate system; decode with ParseGeometry.
	Geometry json.RawMessage `json:"st_asgeojson,omitempty"`
}

// IsCommercial reports whether the plot is eligible for bidding
func (p *Plot) IsCommercial() bool {
	return strings.EqualFold(p.Category, CategoryCommercial)
}

// IsSelectable reports whether the plot can still be acted on by a customer
func (p *Plot) IsSelectable() bool {
	return p.Status == PlotStatusAvailable || p.Status == PlotStatusBidding
}

// PlotCounts carries the aggregate counts returned alongside a filtered plot list
type PlotCounts struct {
	Sizes      map[string]int `json:"sizes"`
	Categories map[string]int `json:"categories"`
	TotalCount int            `json:"total_count"`
}

// PlotListResult is the outcome of one load of the filtered-plots endpoint.
// A failed load yields an empty Plots slice and an error at the call site,
// never a partially applied result.
type PlotListResult struct {
	Plots  []Plot     `json:"plots"`
	Counts PlotCounts `json:"counts"`
}
