// Package mock implements the built-in synthetic source adapter. It is
// network-free, always succeeds, and produces the same output for the same
// input, so results remain cacheable and tests stay deterministic. It backs
// the last hop of every fallback chain.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/geo"
	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
)

// Assumed average speeds, km/h.
const (
	walkSpeedKmh  = 5.0
	bikeSpeedKmh  = 15.0
	driveSpeedKmh = 50.0
	// driveSpeedMps is driveSpeedKmh in meters per second.
	driveSpeedMps = 13.89
	// isochroneSpeedKmh is the drive speed used for reachability contours,
	// discounted for urban traffic.
	isochroneSpeedKmh = 40.0
)

const isochronePolygonPoints = 16

// Adapter is the synthetic SourceAdapter.
type Adapter struct{}

// New returns the synthetic adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the registry key of the synthetic source.
func (a *Adapter) Name() string {
	return config.MockSourceName
}

// Probe always succeeds; the synthetic source has no dependencies.
func (a *Adapter) Probe(context.Context) error {
	return nil
}

// Geocode resolves known landmarks by substring match and derives a stable
// point near midtown Manhattan for anything else, flagged with low
// confidence and an "(estimated location)" label.
func (a *Adapter) Geocode(_ context.Context, address string) (*models.GeocodeResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(address))

	if loc, ok := knownLocations[normalized]; ok {
		return geocodeResult(loc, 0.9), nil
	}
	for key, loc := range knownLocations {
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			return geocodeResult(loc, 0.9), nil
		}
	}

	point := models.LatLon{
		Lat: fallbackAnchor.Lat + (unit(normalized, "lat")-0.5)*0.1,
		Lon: fallbackAnchor.Lon + (unit(normalized, "lon")-0.5)*0.1,
	}
	return &models.GeocodeResult{
		Latitude:         point.Lat,
		Longitude:        point.Lon,
		FormattedAddress: fmt.Sprintf("%s (estimated location)", address),
		Confidence:       0.3,
		Country:          "United States",
		City:             "New York",
		Street:           address,
	}, nil
}

// Route draws a straight line between the endpoints and derives duration
// from the haversine distance at an assumed 50 km/h.
func (a *Adapter) Route(_ context.Context, start, end models.LatLon, _ string) (*models.RouteResult, error) {
	distanceMeters := geo.HaversineKm(start, end) * 1000
	durationSeconds := distanceMeters / driveSpeedMps

	return &models.RouteResult{
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
		Geometry:        []models.LatLon{start, end},
		Steps: []models.RouteStep{{
			Instruction:     "Drive from start to destination",
			DistanceMeters:  distanceMeters,
			DurationSeconds: durationSeconds,
		}},
		Summary: fmt.Sprintf("%.1f km, %.0f min (estimated)", distanceMeters/1000, durationSeconds/60),
	}, nil
}

// SearchPlaces scatters template places around the search center. Placement
// and property values derive from a hash of the inputs, so repeated
// searches return identical results.
func (a *Adapter) SearchPlaces(_ context.Context, q ports.PlacesQuery) ([]models.PlaceResult, error) {
	templates := matchTemplates(q.Query)
	if q.Limit > 0 && len(templates) > q.Limit {
		templates = templates[:q.Limit]
	}

	results := make([]models.PlaceResult, 0, len(templates))
	for _, tmpl := range templates {
		bearing := 2 * math.Pi * unit(q.Query, tmpl.name, "bearing")
		distance := 0.1 + (q.RadiusKm-0.1)*unit(q.Query, tmpl.name, "distance")
		if distance < 0 {
			distance = 0.1
		}
		point := geo.Offset(q.Center, distance, bearing)
		distanceKm := geo.HaversineKm(q.Center, point)

		results = append(results, models.PlaceResult{
			Name:       tmpl.name,
			Latitude:   point.Lat,
			Longitude:  point.Lon,
			Address:    fmt.Sprintf("%s, %d Main St", tmpl.name, int(math.Abs(point.Lat)*1000)%999),
			Categories: tmpl.categories,
			Source:     config.MockSourceName,
			DistanceKm: &distanceKm,
			Properties: map[string]any{
				"mock":          true,
				"opening_hours": openingHours(tmpl.categories),
				"rating":        math.Round((3.5+1.3*unit(tmpl.name, "rating"))*10) / 10,
				"price_level":   priceLevels[int(unit(tmpl.name, "price")*3)%len(priceLevels)],
			},
		})
	}
	return results, nil
}

// Matrix fills pairwise distances from haversine and durations from a
// per-pair speed between 25 and 45 km/h derived from the coordinates.
func (a *Adapter) Matrix(_ context.Context, locations []models.LatLon) (*models.MatrixResult, error) {
	n := len(locations)
	distances := make([][]float64, n)
	durations := make([][]float64, n)
	indices := make([]int, n)

	for i := range locations {
		indices[i] = i
		distances[i] = make([]float64, n)
		durations[i] = make([]float64, n)
		for j := range locations {
			if i == j {
				continue
			}
			distanceKm := geo.HaversineKm(locations[i], locations[j])
			speedKmh := 25 + 20*unit(
				fmt.Sprintf("%f,%f", locations[i].Lat, locations[i].Lon),
				fmt.Sprintf("%f,%f", locations[j].Lat, locations[j].Lon),
			)
			distances[i][j] = math.Round(distanceKm*1000*10) / 10
			durations[i][j] = math.Round(distanceKm/speedKmh*3600*10) / 10
		}
	}

	return &models.MatrixResult{
		Durations:    durations,
		Distances:    distances,
		Sources:      indices,
		Destinations: indices,
	}, nil
}

// Isochrones approximates each reachable area as a regular 16-gon whose
// radius is the distance covered in the time budget at the mode's assumed
// speed.
func (a *Adapter) Isochrones(_ context.Context, center models.LatLon, minutes []float64, mode string) ([]models.IsochroneResult, error) {
	results := make([]models.IsochroneResult, 0, len(minutes))

	for idx, minute := range minutes {
		radiusKm := minute / 60 * modeSpeedKmh(mode)
		radiusDegrees := radiusKm / geo.KmPerDegreeLat

		ring := make([][2]float64, 0, isochronePolygonPoints+1)
		for i := 0; i < isochronePolygonPoints; i++ {
			angle := float64(i) * 2 * math.Pi / isochronePolygonPoints
			lat := center.Lat + radiusDegrees*math.Cos(angle)
			lon := center.Lon + radiusDegrees*math.Sin(angle)/math.Cos(center.Lat*math.Pi/180)
			ring = append(ring, [2]float64{lon, lat})
		}
		ring = append(ring, ring[0]) // close the ring

		areaSqm := math.Pi * (radiusKm * 1000) * (radiusKm * 1000)
		results = append(results, models.IsochroneResult{
			Center:       center,
			ValueMinutes: minute,
			AreaSqm:      math.Round(areaSqm*100) / 100,
			Geometry:     models.Polygon{Type: "Polygon", Coordinates: [][][2]float64{ring}},
			Properties: map[string]any{
				"group_index": idx,
				"mode":        mode,
				"units":       "minutes",
			},
		})
	}
	return results, nil
}

var priceLevels = []string{"$", "$$", "$$$"}

func geocodeResult(loc knownLocation, confidence float64) *models.GeocodeResult {
	return &models.GeocodeResult{
		Latitude:         loc.lat,
		Longitude:        loc.lon,
		FormattedAddress: loc.address,
		Confidence:       confidence,
		Country:          loc.country,
		City:             loc.city,
		Street:           loc.street,
	}
}

// matchTemplates picks place templates for a query: whole categories whose
// key appears in the query, then individual templates sharing a word with
// it. An unmatched query gets a fixed cross-category sample so searches
// never come back empty.
func matchTemplates(query string) []placeTemplate {
	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)

	var matched []placeTemplate
	for _, category := range placeCategories {
		if strings.Contains(queryLower, category) {
			matched = append(matched, placesDB[category]...)
			continue
		}
		for _, tmpl := range placesDB[category] {
			nameLower := strings.ToLower(tmpl.name)
			for _, word := range words {
				if strings.Contains(nameLower, word) {
					matched = append(matched, tmpl)
					break
				}
			}
		}
	}

	if len(matched) == 0 {
		for _, category := range placeCategories {
			matched = append(matched, placesDB[category][0])
			if len(matched) == 6 {
				break
			}
		}
	}
	return matched
}

func openingHours(categories []string) string {
	for _, c := range categories {
		if c == "restaurant" {
			return "9:00-21:00"
		}
	}
	return "24/7"
}

func modeSpeedKmh(mode string) float64 {
	switch mode {
	case "walk":
		return walkSpeedKmh
	case "bike":
		return bikeSpeedKmh
	case "drive":
		return isochroneSpeedKmh
	default:
		return isochroneSpeedKmh
	}
}

// unit hashes its parts into a stable float in [0, 1). It replaces random
// jitter so identical inputs produce identical synthetic data.
func unit(parts ...string) float64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return float64(h.Sum64()%1_000_000) / 1_000_000
}
