package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/ports"
)

// AdapterSet holds the registered adapters and one weighted semaphore per
// source bounding in-flight calls to that source's concurrency allowance.
// Calls to different sources never contend with each other. Registration
// happens once at wiring time; the set is read-only afterwards.
type AdapterSet struct {
	adapters map[string]ports.SourceAdapter
	gates    map[string]*semaphore.Weighted
}

// NewAdapterSet returns an empty adapter set.
func NewAdapterSet() *AdapterSet {
	return &AdapterSet{
		adapters: make(map[string]ports.SourceAdapter),
		gates:    make(map[string]*semaphore.Weighted),
	}
}

// Register binds an adapter to its source config.
func (s *AdapterSet) Register(cfg *config.SourceConfig, adapter ports.SourceAdapter) error {
	if cfg == nil || adapter == nil {
		return fmt.Errorf("source config and adapter are required")
	}
	if _, exists := s.adapters[cfg.Name]; exists {
		return fmt.Errorf("adapter already registered for source %s", cfg.Name)
	}

	limit := cfg.RateLimits.ConcurrentRequests
	if limit <= 0 {
		limit = 1
	}
	s.adapters[cfg.Name] = adapter
	s.gates[cfg.Name] = semaphore.NewWeighted(int64(limit))
	return nil
}

// Get returns the adapter registered for the source, if any.
func (s *AdapterSet) Get(name string) (ports.SourceAdapter, bool) {
	adapter, ok := s.adapters[name]
	return adapter, ok
}

// Acquire claims a concurrency slot for the source, blocking until one is
// free or ctx is done. The returned release must be called exactly once.
func (s *AdapterSet) Acquire(ctx context.Context, name string) (release func(), err error) {
	gate, ok := s.gates[name]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for source %s", name)
	}
	if err := gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { gate.Release(1) }, nil
}
