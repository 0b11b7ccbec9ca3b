package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeocodeKeyNormalizes(t *testing.T) {
	assert.Equal(t, GeocodeKey("Times Square"), GeocodeKey("  times square "))
}

func TestGeocodeKeyEscapesDelimiter(t *testing.T) {
	assert.NotEqual(t, GeocodeKey("a:b"), GeocodeKey("a")+":b")
	assert.Equal(t, "geocode:a_b", GeocodeKey("a:b"))
}

func TestRouteKeyDirectional(t *testing.T) {
	a := LatLon{Lat: 40.7580, Lon: -73.9855}
	b := LatLon{Lat: 40.7484, Lon: -73.9857}
	assert.NotEqual(t, RouteKey(a, b, "drive"), RouteKey(b, a, "drive"),
		"reversed endpoints are a different route")
	assert.NotEqual(t, RouteKey(a, b, "drive"), RouteKey(a, b, "walk"))
}

func TestPlacesKeyIncludesAllParameters(t *testing.T) {
	center := LatLon{Lat: 40.7580, Lon: -73.9855}
	base := PlacesKey("coffee", center, 2, 10)
	assert.NotEqual(t, base, PlacesKey("coffee", center, 3, 10))
	assert.NotEqual(t, base, PlacesKey("coffee", center, 2, 20))
	assert.NotEqual(t, base, PlacesKey("tea", center, 2, 10))
	assert.Equal(t, base, PlacesKey("Coffee", center, 2, 10), "query is case-insensitive")
}

func TestMatrixKeyOrderSensitive(t *testing.T) {
	a := LatLon{Lat: 1, Lon: 2}
	b := LatLon{Lat: 3, Lon: 4}
	assert.NotEqual(t, MatrixKey([]LatLon{a, b}), MatrixKey([]LatLon{b, a}))
}

func TestIsochroneKeyStable(t *testing.T) {
	center := LatLon{Lat: 40.7580, Lon: -73.9855}
	assert.Equal(t,
		IsochroneKey(center, []float64{10, 20}, "drive"),
		IsochroneKey(center, []float64{10, 20}, "drive"))
	assert.NotEqual(t,
		IsochroneKey(center, []float64{10, 20}, "drive"),
		IsochroneKey(center, []float64{10, 20}, "walk"))
}
