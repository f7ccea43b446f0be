package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeometryPolygon(t *testing.T) {
	raw := json.RawMessage(`{"type":"Polygon","coordinates":[[[67.01,30.15],[67.02,30.15],[67.02,30.16],[67.01,30.16],[67.01,30.15]]]}`)

	polygon, err := ParseGeometry(raw)
	require.NoError(t, err)
	require.NotNil(t, polygon)
	require.Len(t, polygon.Ring, 5)
	assert.InDelta(t, 67.01, polygon.Ring[0].Lng, 1e-9)
	assert.InDelta(t, 30.15, polygon.Ring[0].Lat, 1e-9)
}

func TestParseGeometryMultiPolygonKeepsFirst(t *testing.T) {
	raw := json.RawMessage(`{"type":"MultiPolygon","coordinates":[[[[67.0,30.1],[67.1,30.1],[67.1,30.2],[67.0,30.1]]],[[[1,1],[2,2],[3,3],[1,1]]]]}`)

	polygon, err := ParseGeometry(raw)
	require.NoError(t, err)
	require.NotNil(t, polygon)
	require.Len(t, polygon.Ring, 4)
	assert.InDelta(t, 67.0, polygon.Ring[0].Lng, 1e-9)
}

func TestParseGeometryProjectedCoordinates(t *testing.T) {
	// Web Mercator coordinates for roughly 67.02E, 30.16N
	raw := json.RawMessage(`{"type":"Polygon","coordinates":[[[7460547.0,3527090.0],[7461000.0,3527090.0],[7461000.0,3527500.0],[7460547.0,3527090.0]]]}`)

	polygon, err := ParseGeometry(raw)
	require.NoError(t, err)
	require.NotNil(t, polygon)

	for _, c := range polygon.Ring {
		assert.InDelta(t, 67.0, c.Lng, 0.5)
		assert.InDelta(t, 30.2, c.Lat, 0.5)
	}
}

func TestParseGeometryEmptyAndInvalid(t *testing.T) {
	polygon, err := ParseGeometry(nil)
	assert.NoError(t, err)
	assert.Nil(t, polygon)

	_, err = ParseGeometry(json.RawMessage(`{"type":"Point","coordinates":[1,2]}`))
	assert.Error(t, err)

	_, err = ParseGeometry(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestPolygonBoundsAndCenter(t *testing.T) {
	polygon := &Polygon{Ring: []Coordinate{
		{Lng: 67.00, Lat: 30.10},
		{Lng: 67.04, Lat: 30.10},
		{Lng: 67.04, Lat: 30.14},
		{Lng: 67.00, Lat: 30.14},
	}}

	bounds, ok := polygon.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 67.00, bounds.MinLng, 1e-9)
	assert.InDelta(t, 67.04, bounds.MaxLng, 1e-9)

	center := bounds.Center()
	assert.InDelta(t, 67.02, center.Lng, 1e-9)
	assert.InDelta(t, 30.12, center.Lat, 1e-9)

	var empty *Polygon
	_, ok = empty.Bounds()
	assert.False(t, ok)
}
