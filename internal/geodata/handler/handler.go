// Package handler exposes the geodata aggregation service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
	dErrors "urbanclear/pkg/domain-errors"
	"urbanclear/pkg/platform/httputil"
	"urbanclear/pkg/requestcontext"
)

// Service defines the aggregation operations the handlers depend on.
type Service interface {
	GeocodeAddress(ctx context.Context, address, preferSource string) (*models.GeocodeResult, error)
	GetRoute(ctx context.Context, start, end models.LatLon, mode, preferSource string) (*models.RouteResult, error)
	SearchPlaces(ctx context.Context, q ports.PlacesQuery, preferSource string) ([]models.PlaceResult, error)
	GetTrafficMatrix(ctx context.Context, locations []models.LatLon, preferSource string) (*models.MatrixResult, error)
	GetIsochrones(ctx context.Context, center models.LatLon, minutes []float64, mode, preferSource string) ([]models.IsochroneResult, error)
}

// HealthChecker reports fleet health for the health endpoint.
type HealthChecker interface {
	Status(ctx context.Context) *models.HealthReport
	LastReport() *models.HealthReport
}

// Handler wires geodata endpoints to the aggregation service.
type Handler struct {
	service Service
	health  HealthChecker
	logger  *slog.Logger
}

// New constructs a geodata handler with its dependencies.
func New(service Service, health HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		health:  health,
		logger:  logger,
	}
}

// Register mounts geodata endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/geodata/geocode", h.HandleGeocode)
	r.Get("/geodata/route", h.HandleRoute)
	r.Get("/geodata/places", h.HandlePlaces)
	r.Post("/geodata/matrix", h.HandleMatrix)
	r.Get("/geodata/isochrones", h.HandleIsochrones)
	r.Get("/geodata/health", h.HandleHealth)
}

// HandleGeocode handles GET /geodata/geocode requests.
func (h *Handler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	address := r.URL.Query().Get("address")
	prefer := r.URL.Query().Get("prefer")

	result, err := h.service.GeocodeAddress(ctx, address, prefer)
	if err != nil {
		h.logger.ErrorContext(ctx, "geocode failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if result == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no source could resolve the address"))
		return
	}

	h.logger.InfoContext(ctx, "address geocoded",
		"request_id", requestID,
		"source", result.Source,
		"cache_hit", result.CacheHit,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRoute handles GET /geodata/route requests.
func (h *Handler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	q := r.URL.Query()
	origin, err := parseLatLon(q.Get("start_lat"), q.Get("start_lon"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dest, err := parseLatLon(q.Get("end_lat"), q.Get("end_lon"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.GetRoute(ctx, origin, dest, q.Get("mode"), q.Get("prefer"))
	if err != nil {
		h.logger.ErrorContext(ctx, "route failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if result == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no source could compute the route"))
		return
	}

	h.logger.InfoContext(ctx, "route computed",
		"request_id", requestID,
		"source", result.Source,
		"cache_hit", result.CacheHit,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandlePlaces handles GET /geodata/places requests.
func (h *Handler) HandlePlaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	q := r.URL.Query()
	center, err := parseLatLon(q.Get("lat"), q.Get("lon"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := ports.PlacesQuery{
		Query:  q.Get("query"),
		Center: center,
	}
	if v := q.Get("radius_km"); v != "" {
		query.RadiusKm, err = strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "radius_km must be a number"))
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		query.Limit, err = strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer"))
			return
		}
	}

	results, err := h.service.SearchPlaces(ctx, query, q.Get("prefer"))
	if err != nil {
		h.logger.ErrorContext(ctx, "place search failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "places searched",
		"request_id", requestID,
		"count", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, placesResponse{
		Query:   query.Query,
		Count:   len(results),
		Results: results,
	})
}

// HandleMatrix handles POST /geodata/matrix requests.
func (h *Handler) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[matrixRequest](w, r)
	if !ok {
		return
	}
	locations := make([]models.LatLon, 0, len(req.Locations))
	for _, pair := range req.Locations {
		locations = append(locations, models.LatLon{Lat: pair[0], Lon: pair[1]})
	}

	result, err := h.service.GetTrafficMatrix(ctx, locations, req.Prefer)
	if err != nil {
		h.logger.ErrorContext(ctx, "matrix failed",
			"request_id", requestID,
			"locations", len(locations),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if result == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no source could compute the matrix"))
		return
	}

	h.logger.InfoContext(ctx, "matrix computed",
		"request_id", requestID,
		"source", result.Source,
		"locations", len(locations),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleIsochrones handles GET /geodata/isochrones requests.
func (h *Handler) HandleIsochrones(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	q := r.URL.Query()
	center, err := parseLatLon(q.Get("lat"), q.Get("lon"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	minutes, err := parseMinutes(q.Get("minutes"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	results, err := h.service.GetIsochrones(ctx, center, minutes, q.Get("mode"), q.Get("prefer"))
	if err != nil {
		h.logger.ErrorContext(ctx, "isochrones failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if results == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no source could compute isochrones"))
		return
	}

	h.logger.InfoContext(ctx, "isochrones computed",
		"request_id", requestID,
		"contours", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, isochronesResponse{
		Center:  center,
		Results: results,
	})
}

// HandleHealth handles GET /geodata/health requests. The last periodic
// report is served when present; a fresh probe runs otherwise.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report := h.health.LastReport()
	if report == nil || r.URL.Query().Get("refresh") == "true" {
		report = h.health.Status(ctx)
	}

	status := http.StatusOK
	if report.OverallHealth == models.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}

type matrixRequest struct {
	Locations [][2]float64 `json:"locations"`
	Prefer    string       `json:"prefer,omitempty"`
}

type placesResponse struct {
	Query   string               `json:"query"`
	Count   int                  `json:"count"`
	Results []models.PlaceResult `json:"results"`
}

type isochronesResponse struct {
	Center  models.LatLon            `json:"center"`
	Results []models.IsochroneResult `json:"results"`
}

func parseLatLon(latStr, lonStr string) (models.LatLon, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.LatLon{}, dErrors.New(dErrors.CodeInvalidInput, "latitude must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.LatLon{}, dErrors.New(dErrors.CodeInvalidInput, "longitude must be a number")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return models.LatLon{}, dErrors.New(dErrors.CodeInvalidInput, "coordinates out of range")
	}
	return models.LatLon{Lat: lat, Lon: lon}, nil
}

// parseMinutes parses a comma-separated list of time budgets, defaulting to
// 10 and 20 minutes when absent.
func parseMinutes(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return []float64{10, 20}, nil
	}
	parts := strings.Split(raw, ",")
	minutes := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v <= 0 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "minutes must be positive numbers")
		}
		minutes = append(minutes, v)
	}
	return minutes, nil
}
