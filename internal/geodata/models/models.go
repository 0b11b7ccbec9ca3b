// Package models defines the shared types of the geodata aggregation domain.
package models

import "time"

// Capability identifies a class of geodata a source may serve.
type Capability string

const (
	CapabilityGeocoding   Capability = "geocoding"
	CapabilityRouting     Capability = "routing"
	CapabilityPlaces      Capability = "places"
	CapabilityTrafficFlow Capability = "traffic_flow"
	CapabilityWeather     Capability = "weather"
)

// Tier classifies sources by cost.
type Tier string

const (
	TierFree     Tier = "free"
	TierFreemium Tier = "freemium"
	TierPremium  Tier = "premium"
)

// Quality is a coarse confidence label attached to every result. It is
// informational only and never drives source selection.
type Quality string

const (
	QualityHigh     Quality = "high"
	QualityMedium   Quality = "medium"
	QualityLow      Quality = "low"
	QualityCached   Quality = "cached"
	QualityFallback Quality = "fallback"
)

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ResultMeta carries provenance shared by all operation results.
type ResultMeta struct {
	Source    string    `json:"source"`
	Quality   Quality   `json:"quality"`
	Timestamp time.Time `json:"timestamp"`
	CacheHit  bool      `json:"cache_hit"`
}

// GeocodeResult is a normalized geocoding answer.
type GeocodeResult struct {
	ResultMeta
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
	Confidence       float64 `json:"confidence"`
	Country          string  `json:"country,omitempty"`
	City             string  `json:"city,omitempty"`
	Street           string  `json:"street,omitempty"`
}

// RouteStep is one leg of a route's turn-by-turn breakdown.
type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RouteResult is a normalized routing answer.
type RouteResult struct {
	ResultMeta
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Geometry        []LatLon    `json:"geometry"`
	Steps           []RouteStep `json:"steps"`
	Summary         string      `json:"summary"`
	Warnings        []string    `json:"warnings,omitempty"`
}

// PlaceResult is a normalized place search hit. DistanceKm is the distance
// from the search center when the source reports one; nil otherwise.
type PlaceResult struct {
	Name       string         `json:"name"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Address    string         `json:"address"`
	Categories []string       `json:"categories"`
	Source     string         `json:"source"`
	DistanceKm *float64       `json:"distance_km,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// MatrixResult is a normalized distance/duration matrix. Durations are in
// seconds and distances in meters, indexed [origin][destination].
type MatrixResult struct {
	ResultMeta
	Durations    [][]float64 `json:"durations"`
	Distances    [][]float64 `json:"distances"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
}

// Polygon is a GeoJSON-style polygon: rings of [lon, lat] positions.
type Polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// IsochroneResult is one reachable-area contour for a time budget.
type IsochroneResult struct {
	ResultMeta
	Center       LatLon         `json:"center"`
	ValueMinutes float64        `json:"value_minutes"`
	AreaSqm      float64        `json:"area_sqm"`
	Geometry     Polygon        `json:"geometry"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// QuotaRemaining reports remaining request budget per rolling window.
type QuotaRemaining struct {
	Minute int `json:"minute"`
	Hour   int `json:"hour"`
	Day    int `json:"day"`
	Month  int `json:"month"`
}

// OverallHealth summarizes the health of the whole source fleet.
type OverallHealth string

const (
	HealthHealthy   OverallHealth = "healthy"
	HealthDegraded  OverallHealth = "degraded"
	HealthUnhealthy OverallHealth = "unhealthy"
)

// SourceHealth is the per-source entry of a health report.
type SourceHealth struct {
	Healthy        bool           `json:"healthy"`
	Available      bool           `json:"available"`
	RemainingQuota QuotaRemaining `json:"rate_limit_remaining"`
	Error          string         `json:"error,omitempty"`
}

// HealthReport aggregates probe results across all real sources.
type HealthReport struct {
	Timestamp     time.Time               `json:"timestamp"`
	OverallHealth OverallHealth           `json:"overall_health"`
	Sources       map[string]SourceHealth `json:"sources"`
}
