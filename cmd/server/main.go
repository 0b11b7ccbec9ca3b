package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	geoconfig "urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/handler"
	"urbanclear/internal/geodata/health"
	"urbanclear/internal/geodata/metrics"
	"urbanclear/internal/geodata/ports"
	"urbanclear/internal/geodata/quota"
	"urbanclear/internal/geodata/service"
	"urbanclear/internal/geodata/source"
	"urbanclear/internal/geodata/source/mock"
	"urbanclear/internal/platform/config"
	"urbanclear/internal/platform/httpserver"
	"urbanclear/internal/platform/logger"
	platformredis "urbanclear/internal/platform/redis"
	"urbanclear/pkg/requestcontext"

	geocache "urbanclear/internal/geodata/cache"
)

// main wires the geodata aggregation service and keeps the server lifecycle
// small. Business logic lives in internal/geodata packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	registry := geoconfig.FromEnv()
	logValidation(log, registry)

	quotaTracker := quota.New(registry)
	responseCache, redisClient := buildCache(log, cfg)

	adapters := source.NewAdapterSet()
	// Provider adapters register here as they are implemented. The synthetic
	// source must always be present: it is the last hop of every chain.
	if err := adapters.Register(registry.Get(geoconfig.MockSourceName), mock.New()); err != nil {
		log.Error("register mock source", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	aggregator, err := service.New(registry, adapters, quotaTracker, responseCache,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	if err != nil {
		log.Error("construct aggregator", "error", err)
		os.Exit(1)
	}

	monitor, err := health.New(registry, adapters, quotaTracker,
		health.WithLogger(log),
		health.WithMetrics(m),
	)
	if err != nil {
		log.Error("construct health monitor", "error", err)
		os.Exit(1)
	}
	if err := monitor.Start(cfg.HealthProbeInterval); err != nil {
		log.Error("start health monitor", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestIDMiddleware)
	router.Handle("/metrics", promhttp.Handler())
	handler.New(aggregator, monitor, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting urbanclear geodata service", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := monitor.Stop(); err != nil {
		log.Error("stop health monitor", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("close redis", "error", err)
		}
	}
}

// buildCache returns the Redis-backed cache when REDIS_URL is set and
// reachable, the in-memory cache otherwise.
func buildCache(log *slog.Logger, cfg config.Server) (ports.ResponseCache, *platformredis.Client) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory cache", "error", err)
		return geocache.NewMemory(), nil
	}
	if client == nil {
		log.Info("redis not configured, using in-memory cache")
		return geocache.NewMemory(), nil
	}
	log.Info("using redis response cache")
	return geocache.NewRedis(client.Client), client
}

func logValidation(log *slog.Logger, registry *geoconfig.Registry) {
	report := registry.Validate()
	if report.Valid {
		log.Info("source configuration valid", "sources", len(report.Sources))
	} else {
		log.Warn("source configuration incomplete", "missing_keys", report.MissingKeys)
	}
	for _, rec := range report.Recommendations {
		log.Info("configuration recommendation", "recommendation", rec)
	}
}

// requestIDMiddleware tags each request with an ID for log correlation,
// honoring an inbound X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
