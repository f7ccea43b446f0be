package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// The expo map layer sometimes delivers plot polygons in Web Mercator
// (EPSG:3857) instead of geographic coordinates. Coordinates outside the
// valid lat/lng range are treated as projected and converted on decode.

const earthRadiusMeters = 6378137.0

// Coordinate is a geographic position in degrees
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Polygon is a decoded plot boundary: one outer ring, holes ignored.
// All coordinates are WGS84 regardless of the source projection.
type Polygon struct {
	Ring []Coordinate `json:"ring"`
}

// BoundingBox is an axis-aligned box in geographic coordinates
type BoundingBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Center returns the midpoint of the box, the camera target for zoom-to-plot
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lng: (b.MinLng + b.MaxLng) / 2,
		Lat: (b.MinLat + b.MaxLat) / 2,
	}
}

// geoJSONGeometry mirrors the subset of GeoJSON the map layer produces
type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseGeometry decodes a GeoJSON Polygon or MultiPolygon into a Polygon with
// WGS84 coordinates. For a MultiPolygon only the first polygon is kept, which
// matches how plot boundaries are digitized upstream (one shape per plot).
func ParseGeometry(raw json.RawMessage) (*Polygon, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var geom geoJSONGeometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil, fmt.Errorf("failed to decode plot geometry: %w", err)
	}

	var outer [][]float64
	switch geom.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("failed to decode polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return nil, nil
		}
		outer = rings[0]
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(geom.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("failed to decode multipolygon coordinates: %w", err)
		}
		if len(polys) == 0 || len(polys[0]) == 0 {
			return nil, nil
		}
		outer = polys[0][0]
	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", geom.Type)
	}

	polygon := &Polygon{Ring: make([]Coordinate, 0, len(outer))}
	for _, position := range outer {
		if len(position) < 2 {
			return nil, fmt.Errorf("invalid coordinate pair in plot geometry")
		}
		polygon.Ring = append(polygon.Ring, toGeographic(position[0], position[1]))
	}

	return polygon, nil
}

// toGeographic converts a single position to WGS84. Values already inside the
// valid geographic range pass through unchanged.
func toGeographic(x, y float64) Coordinate {
	if math.Abs(x) <= 180 && math.Abs(y) <= 90 {
		return Coordinate{Lng: x, Lat: y}
	}

	// Inverse Web Mercator
	lng := x / earthRadiusMeters * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadiusMeters)) - math.Pi/2) * 180 / math.Pi
	return Coordinate{Lng: lng, Lat: lat}
}

// Bounds computes the bounding box of the polygon's outer ring
func (p *Polygon) Bounds() (BoundingBox, bool) {
	if p == nil || len(p.Ring) == 0 {
		return BoundingBox{}, false
	}

	box := BoundingBox{
		MinLng: p.Ring[0].Lng, MaxLng: p.Ring[0].Lng,
		MinLat: p.Ring[0].Lat, MaxLat: p.Ring[0].Lat,
	}
	for _, c := range p.Ring[1:] {
		box.MinLng = math.Min(box.MinLng, c.Lng)
		box.MaxLng = math.Max(box.MaxLng, c.Lng)
		box.MinLat = math.Min(box.MinLat, c.Lat)
		box.MaxLat = math.Max(box.MaxLat, c.Lat)
	}
	return box, true
}
