package models

import (
	"strconv"
	"strings"
)

// Cache keys are deterministic canonical strings built from the operation
// name and every input parameter, so identical requests always collide on
// the same key. Floats are formatted with the shortest exact representation
// to keep keys stable across call sites.

// SanitizeKeySegment escapes delimiter characters in key segments so
// user-controlled text (addresses, queries) cannot collide with adjacent
// cache entries.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), ":", "_")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// GeocodeKey builds the cache key for a geocoding request.
func GeocodeKey(address string) string {
	return joinKey("geocode", SanitizeKeySegment(address))
}

// RouteKey builds the cache key for a routing request.
func RouteKey(start, end LatLon, mode string) string {
	return joinKey("route",
		formatFloat(start.Lat), formatFloat(start.Lon),
		formatFloat(end.Lat), formatFloat(end.Lon),
		SanitizeKeySegment(mode))
}

// PlacesKey builds the cache key for a place search request.
func PlacesKey(query string, center LatLon, radiusKm float64, limit int) string {
	return joinKey("places",
		SanitizeKeySegment(query),
		formatFloat(center.Lat), formatFloat(center.Lon),
		formatFloat(radiusKm), strconv.Itoa(limit))
}

// MatrixKey builds the cache key for a distance matrix request.
func MatrixKey(locations []LatLon) string {
	parts := make([]string, 0, 2*len(locations)+1)
	parts = append(parts, "matrix")
	for _, loc := range locations {
		parts = append(parts, formatFloat(loc.Lat), formatFloat(loc.Lon))
	}
	return joinKey(parts...)
}

// IsochroneKey builds the cache key for an isochrone request.
func IsochroneKey(center LatLon, minutes []float64, mode string) string {
	parts := make([]string, 0, len(minutes)+4)
	parts = append(parts, "isochrone", formatFloat(center.Lat), formatFloat(center.Lon))
	for _, m := range minutes {
		parts = append(parts, formatFloat(m))
	}
	parts = append(parts, SanitizeKeySegment(mode))
	return joinKey(parts...)
}
