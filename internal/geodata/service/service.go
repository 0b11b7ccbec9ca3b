// Package service implements the aggregation orchestrator: a single entry
// point over many independent geodata providers that degrades gracefully
// instead of failing when any one of them is down, misconfigured or over
// budget.
//
// Every operation follows the same pipeline: cache lookup, then a
// priority-ordered fallback walk across quota-gated sources, then
// normalization, caching and return. The synthetic mock source sits at the
// end of every chain, so callers only ever see "no data" when even it
// cannot answer.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/metrics"
	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
	"urbanclear/internal/geodata/source"
	dErrors "urbanclear/pkg/domain-errors"
)

// Per-operation cache TTLs.
const (
	ttlGeocode   = time.Hour
	ttlRoute     = 30 * time.Minute
	ttlPlaces    = 10 * time.Minute
	ttlMatrix    = 30 * time.Minute
	ttlIsochrone = 30 * time.Minute
)

var (
	errNoAdapter   = errors.New("no adapter registered")
	errEmptyResult = errors.New("adapter returned no data")
)

// Aggregator owns the quota tracker, response cache and adapter set it
// orchestrates. No package-level state: construct one per process and
// inject it wherever geodata is consumed.
type Aggregator struct {
	registry *config.Registry
	adapters *source.AdapterSet
	selector *source.Selector
	quota    ports.QuotaTracker
	cache    ports.ResponseCache
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(a *Aggregator) {
		a.clock = clock
	}
}

// New constructs the orchestrator. The registry, adapter set, quota tracker
// and cache are required.
func New(registry *config.Registry, adapters *source.AdapterSet, quota ports.QuotaTracker, cache ports.ResponseCache, opts ...Option) (*Aggregator, error) {
	if registry == nil {
		return nil, fmt.Errorf("source registry is required")
	}
	if adapters == nil {
		return nil, fmt.Errorf("adapter set is required")
	}
	if quota == nil {
		return nil, fmt.Errorf("quota tracker is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("response cache is required")
	}

	a := &Aggregator{
		registry: registry,
		adapters: adapters,
		selector: source.NewSelector(registry, quota),
		quota:    quota,
		cache:    cache,
		clock:    clockwork.NewRealClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// candidates returns the fallback order for a capability: the preferred
// source first when given and supported, then the priority chain without
// repeating it. Availability is checked per hop, not here.
func (a *Aggregator) candidates(capability models.Capability, prefer string) []*config.SourceConfig {
	chain := a.selector.SourcesFor(capability)
	if prefer == "" {
		return chain
	}
	preferred := a.registry.Get(prefer)
	if preferred == nil || !preferred.Supports(capability) {
		return chain
	}

	out := make([]*config.SourceConfig, 0, len(chain)+1)
	out = append(out, preferred)
	for _, src := range chain {
		if src.Name != preferred.Name {
			out = append(out, src)
		}
	}
	return out
}

// invokeSource performs one gated, quota-charged, timeout-bounded adapter
// call. The attempt is recorded against the source's quota whether it
// succeeds or fails.
func invokeSource[T any](ctx context.Context, a *Aggregator, src *config.SourceConfig, invoke func(context.Context, ports.SourceAdapter) (T, error)) (T, error) {
	var zero T

	adapter, ok := a.adapters.Get(src.Name)
	if !ok {
		return zero, ports.NewAdapterError(ports.AdapterUnavailable, src.Name, errNoAdapter)
	}

	release, err := a.adapters.Acquire(ctx, src.Name)
	if err != nil {
		return zero, err
	}
	defer release()

	a.quota.RecordRequest(src.Name)

	callCtx := ctx
	if src.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, src.Timeout)
		defer cancel()
	}
	return invoke(callCtx, adapter)
}

// fallbackWalk runs the candidate chain for a single-result operation.
// A hop's failure is logged and never aborts the walk; only the caller's
// deadline does. Returns the zero value with a nil error on total
// exhaustion — the one case a caller sees no data.
func fallbackWalk[T any](ctx context.Context, a *Aggregator, capability models.Capability, prefer, op string, skip func(*config.SourceConfig) bool, invoke func(context.Context, ports.SourceAdapter) (T, error)) (T, *config.SourceConfig, error) {
	var zero T

	for _, src := range a.candidates(capability, prefer) {
		if err := ctx.Err(); err != nil {
			return zero, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "fallback walk aborted by caller deadline")
		}
		if skip != nil && skip(src) {
			continue
		}
		if !a.selector.IsAvailable(src) {
			continue
		}

		value, err := invokeSource(ctx, a, src, invoke)
		if err != nil {
			if ctx.Err() != nil {
				return zero, nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "fallback walk aborted by caller deadline")
			}
			a.logger.WarnContext(ctx, "source attempt failed",
				"operation", op, "source", src.Name, "error", err)
			a.metrics.ObserveRequest(src.Name, string(capability), "error")
			continue
		}

		a.metrics.ObserveRequest(src.Name, string(capability), "success")
		if src.Name == config.MockSourceName {
			a.metrics.ObserveFallback(string(capability))
		}
		return value, src, nil
	}

	a.logger.ErrorContext(ctx, "all sources exhausted", "operation", op, "capability", capability)
	return zero, nil, nil
}

// cacheGet reads a cached value, treating cache failures as misses.
func (a *Aggregator) cacheGet(ctx context.Context, key, op string, dest any) bool {
	hit, err := a.cache.Get(ctx, key, dest)
	if err != nil {
		a.logger.WarnContext(ctx, "cache read failed", "operation", op, "error", err)
		return false
	}
	if hit {
		a.metrics.ObserveCacheHit(op)
	} else {
		a.metrics.ObserveCacheMiss(op)
	}
	return hit
}

// cacheSet writes a value, logging but otherwise ignoring cache failures —
// a broken cache must not fail a successful fetch.
func (a *Aggregator) cacheSet(ctx context.Context, key, op string, value any, ttl time.Duration) {
	if err := a.cache.Set(ctx, key, value, ttl); err != nil {
		a.logger.WarnContext(ctx, "cache write failed", "operation", op, "error", err)
	}
}

// tag stamps provenance onto a freshly fetched result.
func (a *Aggregator) tag(meta *models.ResultMeta, src *config.SourceConfig) {
	meta.Source = src.Name
	meta.Quality = src.Quality
	meta.Timestamp = a.clock.Now()
	meta.CacheHit = false
}
