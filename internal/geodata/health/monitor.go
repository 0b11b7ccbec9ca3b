// Package health probes every configured source and aggregates the results
// into a fleet-wide report with remaining quota per source.
package health

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/metrics"
	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
	"urbanclear/internal/geodata/source"
)

const defaultProbeTimeout = 10 * time.Second

// Monitor issues one lightweight probe per real source and classifies the
// fleet as healthy, degraded or unhealthy. It can run on demand or on a
// periodic schedule that caches the latest report.
type Monitor struct {
	registry *config.Registry
	adapters *source.AdapterSet
	selector *source.Selector
	quota    ports.QuotaTracker
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics

	probeTimeout time.Duration
	scheduler    gocron.Scheduler

	mu   sync.RWMutex
	last *models.HealthReport
}

// Option configures a Monitor.
type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(m *Monitor) {
		m.clock = clock
	}
}

func WithProbeTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		m.probeTimeout = timeout
	}
}

// New constructs a health monitor over the registry and adapter set.
func New(registry *config.Registry, adapters *source.AdapterSet, quota ports.QuotaTracker, opts ...Option) (*Monitor, error) {
	if registry == nil {
		return nil, fmt.Errorf("source registry is required")
	}
	if adapters == nil {
		return nil, fmt.Errorf("adapter set is required")
	}
	if quota == nil {
		return nil, fmt.Errorf("quota tracker is required")
	}

	m := &Monitor{
		registry:     registry,
		adapters:     adapters,
		selector:     source.NewSelector(registry, quota),
		quota:        quota,
		clock:        clockwork.NewRealClock(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		probeTimeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Status probes every real source and returns the aggregate report. The
// synthetic mock source is excluded: it cannot fail and would mask a fully
// unhealthy fleet. The report is also cached for LastReport.
func (m *Monitor) Status(ctx context.Context) *models.HealthReport {
	report := &models.HealthReport{
		Timestamp: m.clock.Now(),
		Sources:   make(map[string]models.SourceHealth),
	}

	unhealthy := 0
	for _, src := range m.registry.All() {
		if src.Name == config.MockSourceName {
			continue
		}

		entry := models.SourceHealth{
			Available:      m.selector.IsAvailable(src),
			RemainingQuota: m.quota.Remaining(src.Name),
		}

		switch {
		case !src.Credentialed():
			entry.Error = "missing credentials"
		case !src.Enabled:
			entry.Error = "disabled"
		default:
			if err := m.probe(ctx, src); err != nil {
				entry.Error = err.Error()
			} else {
				entry.Healthy = true
			}
		}
		if !entry.Healthy {
			unhealthy++
		}

		m.publishQuota(src.Name, entry.RemainingQuota)
		report.Sources[src.Name] = entry
	}

	switch {
	case unhealthy == 0:
		report.OverallHealth = models.HealthHealthy
	case unhealthy < len(report.Sources):
		report.OverallHealth = models.HealthDegraded
	default:
		report.OverallHealth = models.HealthUnhealthy
	}

	m.mu.Lock()
	m.last = report
	m.mu.Unlock()
	return report
}

// LastReport returns the most recent report, or nil before the first probe.
func (m *Monitor) LastReport() *models.HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Start schedules periodic probing at the given interval. Stop releases the
// scheduler.
func (m *Monitor) Start(interval time.Duration) error {
	if m.scheduler != nil {
		return fmt.Errorf("health monitor already started")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create health scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout*2)
			defer cancel()
			report := m.Status(ctx)
			m.logger.Info("health probe completed", "overall_health", report.OverallHealth)
		}),
		gocron.WithName("geodata-health-probe"),
	)
	if err != nil {
		return fmt.Errorf("schedule health probe: %w", err)
	}

	m.scheduler = scheduler
	scheduler.Start()
	return nil
}

// Stop shuts the periodic probe down. Safe to call when never started.
func (m *Monitor) Stop() error {
	if m.scheduler == nil {
		return nil
	}
	err := m.scheduler.Shutdown()
	m.scheduler = nil
	return err
}

func (m *Monitor) probe(ctx context.Context, src *config.SourceConfig) error {
	adapter, ok := m.adapters.Get(src.Name)
	if !ok {
		return fmt.Errorf("no adapter registered")
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	return adapter.Probe(probeCtx)
}

func (m *Monitor) publishQuota(name string, remaining models.QuotaRemaining) {
	m.metrics.SetQuotaRemaining(name, "minute", remaining.Minute)
	m.metrics.SetQuotaRemaining(name, "hour", remaining.Hour)
	m.metrics.SetQuotaRemaining(name, "day", remaining.Day)
	m.metrics.SetQuotaRemaining(name, "month", remaining.Month)
}
