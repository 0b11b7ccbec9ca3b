package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"urbanclear/internal/geodata/cache"
	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
	"urbanclear/internal/geodata/quota"
	"urbanclear/internal/geodata/source"
	dErrors "urbanclear/pkg/domain-errors"
)

var errProvider = errors.New("provider exploded")

// stubAdapter is a scriptable SourceAdapter. Canned results are returned
// as-is; a non-nil err fails every operation.
type stubAdapter struct {
	mu    sync.Mutex
	name  string
	err   error
	calls int

	lastMode string

	geocode    *models.GeocodeResult
	route      *models.RouteResult
	places     []models.PlaceResult
	matrix     *models.MatrixResult
	isochrones []models.IsochroneResult
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) record() {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
}

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *stubAdapter) Geocode(context.Context, string) (*models.GeocodeResult, error) {
	a.record()
	if a.err != nil {
		return nil, a.err
	}
	return a.geocode, nil
}

func (a *stubAdapter) Route(_ context.Context, _, _ models.LatLon, mode string) (*models.RouteResult, error) {
	a.record()
	a.mu.Lock()
	a.lastMode = mode
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.route, nil
}

func (a *stubAdapter) SearchPlaces(context.Context, ports.PlacesQuery) ([]models.PlaceResult, error) {
	a.record()
	if a.err != nil {
		return nil, a.err
	}
	return a.places, nil
}

func (a *stubAdapter) Matrix(context.Context, []models.LatLon) (*models.MatrixResult, error) {
	a.record()
	if a.err != nil {
		return nil, a.err
	}
	return a.matrix, nil
}

func (a *stubAdapter) Isochrones(context.Context, models.LatLon, []float64, string) ([]models.IsochroneResult, error) {
	a.record()
	if a.err != nil {
		return nil, a.err
	}
	return a.isochrones, nil
}

func (a *stubAdapter) Probe(context.Context) error { return a.err }

func testSource(name string, priority int, quality models.Quality) *config.SourceConfig {
	return &config.SourceConfig{
		Name:    name,
		Tier:    models.TierFree,
		Quality: quality,
		Capabilities: []models.Capability{
			models.CapabilityGeocoding,
			models.CapabilityRouting,
			models.CapabilityPlaces,
		},
		Credentials: config.Credentials{BaseURL: "https://example.test"},
		RateLimits: config.RateLimit{
			RequestsPerMinute: 5,
			RequestsPerHour:   100,
			RequestsPerDay:    100,
			RequestsPerMonth:  100,
		},
		Priority: priority,
		Enabled:  true,
	}
}

func buildAggregator(t *testing.T, sources []*config.SourceConfig, stubs ...*stubAdapter) (*Aggregator, *quota.Tracker) {
	t.Helper()

	registry, err := config.New(sources...)
	require.NoError(t, err)

	tracker := quota.New(registry)
	adapters := source.NewAdapterSet()
	for _, stub := range stubs {
		require.NoError(t, adapters.Register(registry.Get(stub.name), stub))
	}

	agg, err := New(registry, adapters, tracker, cache.NewMemory())
	require.NoError(t, err)
	return agg, tracker
}

// ServiceSuite exercises the fallback orchestration with scriptable
// adapters over a real quota tracker and in-memory cache.
type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	alpha   *stubAdapter
	bravo   *stubAdapter
	mock    *stubAdapter
	agg     *Aggregator
	tracker *quota.Tracker
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.alpha = &stubAdapter{
		name:    "alpha",
		geocode: &models.GeocodeResult{Latitude: 40.75, Longitude: -73.98, FormattedAddress: "alpha hit", Confidence: 0.95},
		route:   &models.RouteResult{DistanceMeters: 1000, DurationSeconds: 72, Summary: "alpha route"},
		places: []models.PlaceResult{
			{Name: "Starbucks Coffee", Latitude: 40.75800, Longitude: -73.98550, Source: "alpha"},
		},
		matrix:     &models.MatrixResult{Durations: [][]float64{{0}}, Distances: [][]float64{{0}}},
		isochrones: []models.IsochroneResult{{ValueMinutes: 10}, {ValueMinutes: 20}},
	}
	s.bravo = &stubAdapter{
		name:    "bravo",
		geocode: &models.GeocodeResult{Latitude: 40.74, Longitude: -73.99, FormattedAddress: "bravo hit", Confidence: 0.8},
		route:   &models.RouteResult{DistanceMeters: 1100, DurationSeconds: 80, Summary: "bravo route"},
		places: []models.PlaceResult{
			{Name: "starbucks coffee", Latitude: 40.75805, Longitude: -73.98552, Source: "bravo"},
			{Name: "Joe's Pizza", Latitude: 40.7600, Longitude: -73.9900, Source: "bravo"},
		},
		matrix:     &models.MatrixResult{Durations: [][]float64{{0}}, Distances: [][]float64{{0}}},
		isochrones: []models.IsochroneResult{{ValueMinutes: 10}, {ValueMinutes: 20}},
	}
	s.mock = &stubAdapter{
		name:    config.MockSourceName,
		geocode: &models.GeocodeResult{Latitude: 40.7589, Longitude: -73.9851, FormattedAddress: "synthetic", Confidence: 0.3},
		route:   &models.RouteResult{DistanceMeters: 900, DurationSeconds: 64, Summary: "synthetic route"},
		places: []models.PlaceResult{
			{Name: "Synthetic Cafe", Latitude: 40.7589, Longitude: -73.9851, Source: config.MockSourceName},
		},
		matrix:     &models.MatrixResult{Durations: [][]float64{{0}}, Distances: [][]float64{{0}}},
		isochrones: []models.IsochroneResult{{ValueMinutes: 10}},
	}

	s.agg, s.tracker = buildAggregator(s.T(),
		[]*config.SourceConfig{
			testSource("alpha", 1, models.QualityHigh),
			testSource("bravo", 2, models.QualityMedium),
			config.MockSourceConfig(),
		},
		s.alpha, s.bravo, s.mock,
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestGeocodeUsesHighestPrioritySource() {
	result, err := s.agg.GeocodeAddress(s.ctx, "times square", "")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), "alpha", result.Source)
	assert.Equal(s.T(), models.QualityHigh, result.Quality)
	assert.False(s.T(), result.CacheHit)
	assert.Equal(s.T(), 0, s.bravo.callCount(), "lower-priority source must not be consulted")
}

func (s *ServiceSuite) TestGeocodeFallsBackOnFailure() {
	s.alpha.err = errProvider

	result, err := s.agg.GeocodeAddress(s.ctx, "times square", "")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), "bravo", result.Source)
	assert.Equal(s.T(), 1, s.alpha.callCount(), "failing source is still attempted")
	// The failed attempt is charged against alpha's budget.
	assert.Equal(s.T(), 4, s.tracker.Remaining("alpha").Minute)
}

func (s *ServiceSuite) TestGeocodeSkipsExhaustedSource() {
	for i := 0; i < 5; i++ {
		s.tracker.RecordRequest("alpha")
	}

	result, err := s.agg.GeocodeAddress(s.ctx, "times square", "")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), "bravo", result.Source)
	assert.Equal(s.T(), 0, s.alpha.callCount(), "over-budget source must not be invoked")
}

func (s *ServiceSuite) TestGeocodeSecondCallServedFromCache() {
	first, err := s.agg.GeocodeAddress(s.ctx, "times square", "")
	require.NoError(s.T(), err)

	second, err := s.agg.GeocodeAddress(s.ctx, "times square", "")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), second)

	assert.Equal(s.T(), 1, s.alpha.callCount(), "cache hit must not touch the source")
	assert.True(s.T(), second.CacheHit)
	assert.Equal(s.T(), models.QualityCached, second.Quality)
	assert.Equal(s.T(), first.Source, second.Source, "provenance survives the cache")
	assert.Equal(s.T(), first.Latitude, second.Latitude)
}

func (s *ServiceSuite) TestGeocodeMockServesWhenAllRealSourcesFail() {
	s.alpha.err = errProvider
	s.bravo.err = errProvider

	result, err := s.agg.GeocodeAddress(s.ctx, "anywhere", "")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), config.MockSourceName, result.Source)
	assert.Equal(s.T(), models.QualityFallback, result.Quality)
}

func (s *ServiceSuite) TestGeocodeTotalExhaustionReturnsNil() {
	s.alpha.err = errProvider
	s.bravo.err = errProvider
	s.mock.err = errProvider

	result, err := s.agg.GeocodeAddress(s.ctx, "anywhere", "")
	assert.NoError(s.T(), err)
	assert.Nil(s.T(), result)
}

func (s *ServiceSuite) TestGeocodeEmptyAddressRejected() {
	_, err := s.agg.GeocodeAddress(s.ctx, "   ", "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestGeocodeCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.agg.GeocodeAddress(ctx, "times square", "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestGeocodePreferredSourceFirst() {
	result, err := s.agg.GeocodeAddress(s.ctx, "times square", "bravo")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), "bravo", result.Source)
	assert.Equal(s.T(), 0, s.alpha.callCount())
}

func (s *ServiceSuite) TestGeocodePreferredFailureFallsBackToChain() {
	s.bravo.err = errProvider

	result, err := s.agg.GeocodeAddress(s.ctx, "times square", "bravo")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), "alpha", result.Source)
}

func (s *ServiceSuite) TestRouteDefaultsToDriveMode() {
	result, err := s.agg.GetRoute(s.ctx, models.LatLon{Lat: 40.75, Lon: -73.98}, models.LatLon{Lat: 40.74, Lon: -73.99}, "", "")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), result)

	assert.Equal(s.T(), "drive", s.alpha.lastMode)
	assert.Equal(s.T(), "alpha", result.Source)
}

func (s *ServiceSuite) TestSearchPlacesMergesAndDeduplicates() {
	q := ports.PlacesQuery{Query: "food", Center: models.LatLon{Lat: 40.758, Lon: -73.985}, RadiusKm: 2, Limit: 10}

	results, err := s.agg.SearchPlaces(s.ctx, q, "")
	require.NoError(s.T(), err)

	require.Len(s.T(), results, 2, "duplicate Starbucks collapses across sources")
	names := []string{results[0].Name, results[1].Name}
	assert.Contains(s.T(), names, "Starbucks Coffee")
	assert.Contains(s.T(), names, "Joe's Pizza")
	for _, p := range results {
		if p.Name == "Starbucks Coffee" {
			assert.Equal(s.T(), "alpha", p.Source, "higher-priority listing wins the duplicate group")
		}
	}
	assert.Equal(s.T(), 0, s.mock.callCount(), "synthetic data stays out when real sources deliver")
}

func (s *ServiceSuite) TestSearchPlacesOneFailureDoesNotAbort() {
	s.alpha.err = errProvider
	q := ports.PlacesQuery{Query: "food", Center: models.LatLon{Lat: 40.758, Lon: -73.985}, RadiusKm: 2, Limit: 10}

	results, err := s.agg.SearchPlaces(s.ctx, q, "")
	require.NoError(s.T(), err)
	require.Len(s.T(), results, 2, "bravo's results survive alpha's failure")
}

func (s *ServiceSuite) TestSearchPlacesMockOnlyWhenRealSourcesEmpty() {
	s.alpha.places = nil
	s.bravo.places = nil
	q := ports.PlacesQuery{Query: "food", Center: models.LatLon{Lat: 40.758, Lon: -73.985}, RadiusKm: 2, Limit: 10}

	results, err := s.agg.SearchPlaces(s.ctx, q, "")
	require.NoError(s.T(), err)
	require.Len(s.T(), results, 1)
	assert.Equal(s.T(), config.MockSourceName, results[0].Source)
}

func (s *ServiceSuite) TestSearchPlacesCached() {
	q := ports.PlacesQuery{Query: "food", Center: models.LatLon{Lat: 40.758, Lon: -73.985}, RadiusKm: 2, Limit: 10}

	_, err := s.agg.SearchPlaces(s.ctx, q, "")
	require.NoError(s.T(), err)
	results, err := s.agg.SearchPlaces(s.ctx, q, "")
	require.NoError(s.T(), err)

	assert.Len(s.T(), results, 2)
	assert.Equal(s.T(), 1, s.alpha.callCount())
	assert.Equal(s.T(), 1, s.bravo.callCount())
}

func (s *ServiceSuite) TestSearchPlacesRespectsLimit() {
	q := ports.PlacesQuery{Query: "food", Center: models.LatLon{Lat: 40.758, Lon: -73.985}, RadiusKm: 2, Limit: 1}

	results, err := s.agg.SearchPlaces(s.ctx, q, "")
	require.NoError(s.T(), err)
	assert.Len(s.T(), results, 1)
}

func (s *ServiceSuite) TestSearchPlacesEmptyQueryRejected() {
	_, err := s.agg.SearchPlaces(s.ctx, ports.PlacesQuery{Query: " "}, "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestMatrixRequiresTwoLocations() {
	_, err := s.agg.GetTrafficMatrix(s.ctx, []models.LatLon{{Lat: 40.75, Lon: -73.98}}, "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestIsochronesRequireTimeBudget() {
	_, err := s.agg.GetIsochrones(s.ctx, models.LatLon{Lat: 40.75, Lon: -73.98}, nil, "drive", "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestIsochronesCachedEntriesRetagged() {
	center := models.LatLon{Lat: 40.75, Lon: -73.98}
	first, err := s.agg.GetIsochrones(s.ctx, center, []float64{10, 20}, "drive", "")
	require.NoError(s.T(), err)
	require.Len(s.T(), first, 2)
	assert.Equal(s.T(), "alpha", first[0].Source)

	second, err := s.agg.GetIsochrones(s.ctx, center, []float64{10, 20}, "drive", "")
	require.NoError(s.T(), err)
	require.Len(s.T(), second, 2)
	for _, iso := range second {
		assert.True(s.T(), iso.CacheHit)
		assert.Equal(s.T(), models.QualityCached, iso.Quality)
	}
	assert.Equal(s.T(), 1, s.alpha.callCount())
}

func TestMatrixSkipsSourceBelowLocationCap(t *testing.T) {
	capped := testSource("capped", 1, models.QualityHigh)
	capped.MaxMatrixLocations = 2
	open := testSource("open", 2, models.QualityMedium)

	cappedStub := &stubAdapter{name: "capped", matrix: &models.MatrixResult{}}
	openStub := &stubAdapter{name: "open", matrix: &models.MatrixResult{Durations: [][]float64{{0}}, Distances: [][]float64{{0}}}}

	agg, _ := buildAggregator(t, []*config.SourceConfig{capped, open}, cappedStub, openStub)

	locations := []models.LatLon{
		{Lat: 40.75, Lon: -73.98},
		{Lat: 40.74, Lon: -73.99},
		{Lat: 40.70, Lon: -73.99},
	}
	result, err := agg.GetTrafficMatrix(context.Background(), locations, "")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "open", result.Source)
	assert.Equal(t, 0, cappedStub.callCount(), "capped source skipped for oversized requests")
}

func TestNewRequiresDependencies(t *testing.T) {
	registry, err := config.New(testSource("alpha", 1, models.QualityHigh))
	require.NoError(t, err)

	_, err = New(nil, source.NewAdapterSet(), quota.New(registry), cache.NewMemory())
	assert.Error(t, err)
	_, err = New(registry, nil, quota.New(registry), cache.NewMemory())
	assert.Error(t, err)
	_, err = New(registry, source.NewAdapterSet(), nil, cache.NewMemory())
	assert.Error(t, err)
	_, err = New(registry, source.NewAdapterSet(), quota.New(registry), nil)
	assert.Error(t, err)
}
