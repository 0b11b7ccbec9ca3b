package service

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/dedupe"
	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
	dErrors "urbanclear/pkg/domain-errors"
)

// GeocodeAddress resolves an address through the geocoding fallback chain.
// Returns (nil, nil) only on total exhaustion.
func (a *Aggregator) GeocodeAddress(ctx context.Context, address, preferSource string) (*models.GeocodeResult, error) {
	if strings.TrimSpace(address) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}

	key := models.GeocodeKey(address)
	var cached models.GeocodeResult
	if a.cacheGet(ctx, key, "geocode", &cached) {
		cached.Quality = models.QualityCached
		cached.CacheHit = true
		return &cached, nil
	}

	result, src, err := fallbackWalk(ctx, a, models.CapabilityGeocoding, preferSource, "geocode", nil,
		func(ctx context.Context, adapter ports.SourceAdapter) (*models.GeocodeResult, error) {
			res, err := adapter.Geocode(ctx, address)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, ports.NewAdapterError(ports.AdapterUnavailable, adapter.Name(), errEmptyResult)
			}
			return res, nil
		})
	if err != nil || result == nil {
		return nil, err
	}

	a.tag(&result.ResultMeta, src)
	a.cacheSet(ctx, key, "geocode", result, ttlGeocode)
	return result, nil
}

// GetRoute computes a route through the routing fallback chain.
// Returns (nil, nil) only on total exhaustion.
func (a *Aggregator) GetRoute(ctx context.Context, start, end models.LatLon, mode, preferSource string) (*models.RouteResult, error) {
	if mode == "" {
		mode = "drive"
	}

	key := models.RouteKey(start, end, mode)
	var cached models.RouteResult
	if a.cacheGet(ctx, key, "route", &cached) {
		cached.Quality = models.QualityCached
		cached.CacheHit = true
		return &cached, nil
	}

	result, src, err := fallbackWalk(ctx, a, models.CapabilityRouting, preferSource, "route", nil,
		func(ctx context.Context, adapter ports.SourceAdapter) (*models.RouteResult, error) {
			res, err := adapter.Route(ctx, start, end, mode)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, ports.NewAdapterError(ports.AdapterUnavailable, adapter.Name(), errEmptyResult)
			}
			return res, nil
		})
	if err != nil || result == nil {
		return nil, err
	}

	a.tag(&result.ResultMeta, src)
	a.cacheSet(ctx, key, "route", result, ttlRoute)
	return result, nil
}

// SearchPlaces queries every available places source in parallel, merges
// and deduplicates the results, and caches the merged list. Unlike the
// single-result operations it does not stop at first success: overlapping
// coverage is the point.
func (a *Aggregator) SearchPlaces(ctx context.Context, q ports.PlacesQuery, preferSource string) ([]models.PlaceResult, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "query is required")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = 10
	}

	key := models.PlacesKey(q.Query, q.Center, q.RadiusKm, q.Limit)
	var cached []models.PlaceResult
	if a.cacheGet(ctx, key, "places", &cached) {
		return cached, nil
	}

	candidates := a.candidates(models.CapabilityPlaces, preferSource)

	// One result slot per candidate keeps merge order deterministic
	// regardless of goroutine completion order, so deduplication always
	// favors the higher-priority source.
	slots := make([][]models.PlaceResult, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range candidates {
		// The synthetic source never joins the merge; it serves alone when
		// every real source comes back empty.
		if src.Name == config.MockSourceName {
			continue
		}
		if !a.selector.IsAvailable(src) {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			places, err := invokeSource(gctx, a, src, func(ctx context.Context, adapter ports.SourceAdapter) ([]models.PlaceResult, error) {
				return adapter.SearchPlaces(ctx, q)
			})
			if err != nil {
				a.logger.WarnContext(gctx, "source attempt failed",
					"operation", "places", "source", src.Name, "error", err)
				a.metrics.ObserveRequest(src.Name, string(models.CapabilityPlaces), "error")
				return nil // one source's failure never aborts the fan-out
			}
			a.metrics.ObserveRequest(src.Name, string(models.CapabilityPlaces), "success")
			if src.Name == config.MockSourceName {
				a.metrics.ObserveFallback(string(models.CapabilityPlaces))
			}
			mu.Lock()
			slots[i] = places
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "place search aborted by caller deadline")
	}

	var merged []models.PlaceResult
	for _, places := range slots {
		merged = append(merged, places...)
	}
	unique := dedupe.Places(merged)
	if len(unique) == 0 {
		unique = a.mockPlaces(ctx, q)
	}
	if len(unique) > q.Limit {
		unique = unique[:q.Limit]
	}

	if len(unique) > 0 {
		a.cacheSet(ctx, key, "places", unique, ttlPlaces)
	}
	return unique, nil
}

// mockPlaces invokes the synthetic source when the real fleet produced
// nothing. Returns nil when even it cannot serve.
func (a *Aggregator) mockPlaces(ctx context.Context, q ports.PlacesQuery) []models.PlaceResult {
	src := a.registry.Get(config.MockSourceName)
	if src == nil || !src.Supports(models.CapabilityPlaces) || !a.selector.IsAvailable(src) {
		return nil
	}

	places, err := invokeSource(ctx, a, src, func(ctx context.Context, adapter ports.SourceAdapter) ([]models.PlaceResult, error) {
		return adapter.SearchPlaces(ctx, q)
	})
	if err != nil {
		a.logger.WarnContext(ctx, "source attempt failed",
			"operation", "places", "source", src.Name, "error", err)
		a.metrics.ObserveRequest(src.Name, string(models.CapabilityPlaces), "error")
		return nil
	}
	a.metrics.ObserveRequest(src.Name, string(models.CapabilityPlaces), "success")
	a.metrics.ObserveFallback(string(models.CapabilityPlaces))
	return dedupe.Places(places)
}

// GetTrafficMatrix computes a pairwise distance/duration matrix. Sources
// with a hard location cap below the request size are skipped.
// Returns (nil, nil) only on total exhaustion.
func (a *Aggregator) GetTrafficMatrix(ctx context.Context, locations []models.LatLon, preferSource string) (*models.MatrixResult, error) {
	if len(locations) < 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least two locations are required")
	}

	key := models.MatrixKey(locations)
	var cached models.MatrixResult
	if a.cacheGet(ctx, key, "matrix", &cached) {
		cached.Quality = models.QualityCached
		cached.CacheHit = true
		return &cached, nil
	}

	tooSmall := func(src *config.SourceConfig) bool {
		return src.MaxMatrixLocations > 0 && len(locations) > src.MaxMatrixLocations
	}
	result, src, err := fallbackWalk(ctx, a, models.CapabilityRouting, preferSource, "matrix", tooSmall,
		func(ctx context.Context, adapter ports.SourceAdapter) (*models.MatrixResult, error) {
			res, err := adapter.Matrix(ctx, locations)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, ports.NewAdapterError(ports.AdapterUnavailable, adapter.Name(), errEmptyResult)
			}
			return res, nil
		})
	if err != nil || result == nil {
		return nil, err
	}

	a.tag(&result.ResultMeta, src)
	a.cacheSet(ctx, key, "matrix", result, ttlMatrix)
	return result, nil
}

// GetIsochrones computes reachable-area contours for each time budget.
// Returns (nil, nil) only on total exhaustion.
func (a *Aggregator) GetIsochrones(ctx context.Context, center models.LatLon, minutes []float64, mode, preferSource string) ([]models.IsochroneResult, error) {
	if len(minutes) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one time budget is required")
	}
	if mode == "" {
		mode = "drive"
	}

	key := models.IsochroneKey(center, minutes, mode)
	var cached []models.IsochroneResult
	if a.cacheGet(ctx, key, "isochrone", &cached) {
		for i := range cached {
			cached[i].Quality = models.QualityCached
			cached[i].CacheHit = true
		}
		return cached, nil
	}

	results, src, err := fallbackWalk(ctx, a, models.CapabilityRouting, preferSource, "isochrone", nil,
		func(ctx context.Context, adapter ports.SourceAdapter) ([]models.IsochroneResult, error) {
			res, err := adapter.Isochrones(ctx, center, minutes, mode)
			if err != nil {
				return nil, err
			}
			if len(res) == 0 {
				return nil, ports.NewAdapterError(ports.AdapterUnavailable, adapter.Name(), errEmptyResult)
			}
			return res, nil
		})
	if err != nil || results == nil {
		return nil, err
	}

	for i := range results {
		a.tag(&results[i].ResultMeta, src)
	}
	a.cacheSet(ctx, key, "isochrone", results, ttlIsochrone)
	return results, nil
}
