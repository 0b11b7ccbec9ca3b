// Package geo holds the small amount of spherical geometry the service
// needs. All math assumes a WGS-84 sphere.
package geo

import (
	"math"

	"urbanclear/internal/geodata/models"
)

// EarthRadiusKm is the mean Earth radius used for all distance math.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat is the rough north-south span of one degree of latitude.
const KmPerDegreeLat = 111.0

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b models.LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Offset returns the point reached from origin by traveling distanceKm at
// the given bearing (radians, clockwise from north). Uses the flat
// degrees-per-kilometer approximation, which is adequate for the synthetic
// data that calls it.
func Offset(origin models.LatLon, distanceKm, bearing float64) models.LatLon {
	latOffset := distanceKm / KmPerDegreeLat * math.Cos(bearing)
	lonOffset := distanceKm / (KmPerDegreeLat * math.Cos(origin.Lat*math.Pi/180)) * math.Sin(bearing)
	return models.LatLon{Lat: origin.Lat + latOffset, Lon: origin.Lon + lonOffset}
}
