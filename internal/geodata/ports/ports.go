// Package ports defines shared interfaces for the geodata module.
// Interfaces are placed here when consumed by multiple packages to avoid
// duplication.
package ports

import (
	"context"
	"fmt"
	"time"

	"urbanclear/internal/geodata/models"
)

// PlacesQuery bundles the parameters of a place search.
type PlacesQuery struct {
	Query    string
	Center   models.LatLon
	RadiusKm float64
	Limit    int
}

// SourceAdapter is the capability interface a provider integration must
// implement. Adapters return provider-normalized results or a typed
// *AdapterError; they never panic across this boundary. Retries, if any,
// live inside the adapter — the orchestrator treats each call as one
// atomic attempt.
type SourceAdapter interface {
	// Name returns the registry key of the source this adapter serves.
	Name() string

	// Geocode resolves a free-form address to coordinates.
	Geocode(ctx context.Context, address string) (*models.GeocodeResult, error)

	// Route computes a route between two points for a travel mode.
	Route(ctx context.Context, start, end models.LatLon, mode string) (*models.RouteResult, error)

	// SearchPlaces finds places matching a query around a center point.
	SearchPlaces(ctx context.Context, q PlacesQuery) ([]models.PlaceResult, error)

	// Matrix computes pairwise distances and durations between locations.
	Matrix(ctx context.Context, locations []models.LatLon) (*models.MatrixResult, error)

	// Isochrones computes reachable-area contours for the time budgets.
	Isochrones(ctx context.Context, center models.LatLon, minutes []float64, mode string) ([]models.IsochroneResult, error)

	// Probe issues a minimal request to classify the source healthy or not.
	Probe(ctx context.Context) error
}

// ResponseCache stores previously computed operation results under
// canonical keys. Values for a given key are idempotent, so concurrent
// last-writer-wins overwrites are acceptable.
type ResponseCache interface {
	// Get unmarshals the cached value for key into dest and reports whether
	// a live entry was found.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// QuotaTracker answers whether a source may be called right now and records
// every outbound attempt against its rolling budgets.
type QuotaTracker interface {
	// CanMakeRequest reports whether all four window counters of the source
	// are below budget.
	CanMakeRequest(source string) bool

	// RecordRequest counts one attempt against every window of the source.
	RecordRequest(source string)

	// Remaining returns the remaining budget per window.
	Remaining(source string) models.QuotaRemaining
}

// AdapterErrorKind classifies adapter failures for the fallback walk.
type AdapterErrorKind string

const (
	// AdapterRateLimited means the provider rejected the call for quota
	// reasons on its side.
	AdapterRateLimited AdapterErrorKind = "rate_limited"
	// AdapterUnavailable means the provider is reachable but cannot serve
	// the request (misconfiguration, unsupported parameters, empty data).
	AdapterUnavailable AdapterErrorKind = "unavailable"
	// AdapterTransport means the call itself failed: timeout, connection
	// error, or a non-success status.
	AdapterTransport AdapterErrorKind = "transport"
)

// AdapterError is the typed failure of a single adapter invocation. The
// orchestrator matches on Kind to decide whether to continue the walk; it
// never surfaces these to callers.
type AdapterError struct {
	Kind   AdapterErrorKind
	Source string
	Err    error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s adapter %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s adapter %s", e.Source, e.Kind)
}

// Unwrap exposes the underlying cause.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError builds a typed adapter failure.
func NewAdapterError(kind AdapterErrorKind, source string, err error) *AdapterError {
	return &AdapterError{Kind: kind, Source: source, Err: err}
}
