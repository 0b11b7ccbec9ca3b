// Package config defines the static per-source configuration of the geodata
// aggregation service. The source set is constructed once at startup and
// never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"urbanclear/internal/geodata/models"
)

// RateLimit is the request budget of a source across four rolling windows,
// plus its concurrency allowance.
type RateLimit struct {
	RequestsPerMinute  int
	RequestsPerHour    int
	RequestsPerDay     int
	RequestsPerMonth   int
	ConcurrentRequests int
}

// Credentials holds the API key and endpoint of a source. A freemium or
// premium source without an API key is never available regardless of its
// enabled flag.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// SourceConfig describes a single provider. Immutable after process start.
type SourceConfig struct {
	// Name is the registry key, e.g. "geoapify".
	Name string
	// DisplayName is the human-readable provider name for reports.
	DisplayName string
	Tier        models.Tier
	// Quality is the reliability class tagged onto successful results.
	Quality      models.Quality
	Capabilities []models.Capability
	Credentials  Credentials
	RateLimits   RateLimit
	// Priority orders the fallback chain; lower is preferred.
	Priority int
	Enabled  bool
	// FallbackSources hints at preferred alternatives; informational, the
	// actual chain is derived from priorities.
	FallbackSources []string
	Timeout         time.Duration
	RetryAttempts   int
	// MaxMatrixLocations caps matrix requests for sources with a hard
	// location limit. Zero means unlimited.
	MaxMatrixLocations int
}

// Supports reports whether the source serves the given capability.
func (c *SourceConfig) Supports(capability models.Capability) bool {
	for _, cap := range c.Capabilities {
		if cap == capability {
			return true
		}
	}
	return false
}

// Credentialed reports whether the source has the credentials its tier
// requires. Free sources need none.
func (c *SourceConfig) Credentialed() bool {
	if c.Tier == models.TierFree {
		return true
	}
	return c.Credentials.APIKey != ""
}

// Registry is the immutable set of configured sources. Iteration order is
// registration order, which also breaks priority ties.
type Registry struct {
	sources []*SourceConfig
	byName  map[string]*SourceConfig
}

// New builds a registry from the given sources, preserving order.
func New(sources ...*SourceConfig) (*Registry, error) {
	r := &Registry{byName: make(map[string]*SourceConfig, len(sources))}
	for _, src := range sources {
		if src.Name == "" {
			return nil, fmt.Errorf("source config requires a name")
		}
		if _, exists := r.byName[src.Name]; exists {
			return nil, fmt.Errorf("duplicate source config: %s", src.Name)
		}
		r.sources = append(r.sources, src)
		r.byName[src.Name] = src
	}
	return r, nil
}

// Get returns the source with the given name, or nil.
func (r *Registry) Get(name string) *SourceConfig {
	return r.byName[name]
}

// All returns every source in registration order. Callers must not mutate
// the returned configs.
func (r *Registry) All() []*SourceConfig {
	return r.sources
}

// MockSourceName is the registry key of the built-in synthetic source.
const MockSourceName = "mock"

// FromEnv builds the full source registry. Credentialed sources read one
// environment variable each; the mock source is always registered enabled
// with effectively unlimited budgets and the lowest priority.
func FromEnv() *Registry {
	registry, err := New(
		&SourceConfig{
			Name:         "openstreetmap",
			DisplayName:  "OpenStreetMap Overpass API",
			Tier:         models.TierFree,
			Quality:      models.QualityLow,
			Capabilities: []models.Capability{models.CapabilityPlaces, models.CapabilityRouting},
			Credentials:  Credentials{BaseURL: "https://overpass.private.coffee/api"},
			RateLimits: RateLimit{
				// Modest budgets out of respect for the free service.
				RequestsPerMinute:  60,
				RequestsPerHour:    1000,
				RequestsPerDay:     10000,
				RequestsPerMonth:   1000000,
				ConcurrentRequests: 5,
			},
			Priority:      3,
			Enabled:       true,
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
		},
		&SourceConfig{
			Name:        "geoapify",
			DisplayName: "Geoapify Location Platform",
			Tier:        models.TierFreemium,
			Quality:     models.QualityHigh,
			Capabilities: []models.Capability{
				models.CapabilityGeocoding,
				models.CapabilityRouting,
				models.CapabilityPlaces,
			},
			Credentials: Credentials{
				APIKey:  os.Getenv("GEOAPIFY_API_KEY"),
				BaseURL: "https://api.geoapify.com/v1",
			},
			RateLimits: RateLimit{
				RequestsPerMinute:  100,
				RequestsPerHour:    500,
				RequestsPerDay:     3000, // free tier limit
				RequestsPerMonth:   90000,
				ConcurrentRequests: 10,
			},
			Priority:        2,
			Enabled:         true,
			FallbackSources: []string{"openstreetmap"},
			Timeout:         30 * time.Second,
			RetryAttempts:   3,
		},
		&SourceConfig{
			Name:         "openrouteservice",
			DisplayName:  "OpenRouteService",
			Tier:         models.TierFreemium,
			Quality:      models.QualityMedium,
			Capabilities: []models.Capability{models.CapabilityRouting, models.CapabilityPlaces},
			Credentials: Credentials{
				APIKey:  os.Getenv("OPENROUTESERVICE_API_KEY"),
				BaseURL: "https://api.openrouteservice.org",
			},
			RateLimits: RateLimit{
				RequestsPerMinute:  40,
				RequestsPerHour:    1000,
				RequestsPerDay:     2000, // free tier
				RequestsPerMonth:   60000,
				ConcurrentRequests: 5,
			},
			Priority:           2,
			Enabled:            true,
			FallbackSources:    []string{"geoapify", "openstreetmap"},
			Timeout:            30 * time.Second,
			RetryAttempts:      3,
			MaxMatrixLocations: 25,
		},
		&SourceConfig{
			Name:        "google_maps",
			DisplayName: "Google Maps Platform",
			Tier:        models.TierPremium,
			Quality:     models.QualityHigh,
			Capabilities: []models.Capability{
				models.CapabilityTrafficFlow,
				models.CapabilityRouting,
				models.CapabilityGeocoding,
				models.CapabilityPlaces,
			},
			Credentials: Credentials{
				APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
				BaseURL: "https://maps.googleapis.com/maps/api",
			},
			RateLimits: RateLimit{
				RequestsPerMinute:  1000,
				RequestsPerHour:    50000,
				RequestsPerDay:     100000,
				RequestsPerMonth:   10000, // free tier is per month; watch it
				ConcurrentRequests: 50,
			},
			Priority:        1,
			Enabled:         true,
			FallbackSources: []string{"openrouteservice", "geoapify"},
			Timeout:         30 * time.Second,
			RetryAttempts:   3,
		},
		&SourceConfig{
			Name:        "here_api",
			DisplayName: "HERE Location Services",
			Tier:        models.TierPremium,
			Quality:     models.QualityHigh,
			Capabilities: []models.Capability{
				models.CapabilityTrafficFlow,
				models.CapabilityRouting,
				models.CapabilityGeocoding,
			},
			Credentials: Credentials{
				APIKey:  os.Getenv("HERE_API_KEY"),
				BaseURL: "https://router.hereapi.com/v8",
			},
			RateLimits: RateLimit{
				RequestsPerMinute:  1000,
				RequestsPerHour:    50000,
				RequestsPerDay:     100000,
				RequestsPerMonth:   50000,
				ConcurrentRequests: 50,
			},
			Priority:        1,
			Enabled:         os.Getenv("HERE_API_KEY") != "",
			FallbackSources: []string{"google_maps", "openrouteservice"},
			Timeout:         30 * time.Second,
			RetryAttempts:   3,
		},
		MockSourceConfig(),
	)
	if err != nil {
		// The built-in source set is static; a constructor error here is a
		// programming mistake, not a runtime condition.
		panic(err)
	}
	return registry
}

// MockSourceConfig returns the config of the built-in synthetic source:
// always enabled, every capability, effectively unlimited budgets, lowest
// priority so it only serves when every real source is exhausted.
func MockSourceConfig() *SourceConfig {
	return &SourceConfig{
		Name:        MockSourceName,
		DisplayName: "Mock Data Generator",
		Tier:        models.TierFree,
		Quality:     models.QualityFallback,
		Capabilities: []models.Capability{
			models.CapabilityGeocoding,
			models.CapabilityRouting,
			models.CapabilityPlaces,
			models.CapabilityTrafficFlow,
		},
		Credentials: Credentials{BaseURL: "internal://mock"},
		RateLimits: RateLimit{
			RequestsPerMinute:  1000000,
			RequestsPerHour:    1000000,
			RequestsPerDay:     1000000,
			RequestsPerMonth:   1000000,
			ConcurrentRequests: 100,
		},
		Priority: 10,
		Enabled:  true,
		Timeout:  5 * time.Second,
	}
}
