// Package cache provides TTL-keyed response caches behind the
// ports.ResponseCache interface: an in-memory store for single-process
// deployments and a Redis-backed store for deployments that already run
// Redis. Both serialize values as JSON so they are interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// entry is an immutable cache record; overwritten wholesale, never mutated.
type entry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

// Memory is a process-local TTL cache. Expiry is checked at read time; no
// background sweep runs. Stale entries are replaced on the next Set for
// their key.
type Memory struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	entries map[string]entry
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock injects a clock for deterministic expiry tests.
func WithClock(clock clockwork.Clock) MemoryOption {
	return func(m *Memory) {
		m.clock = clock
	}
}

// NewMemory builds an empty in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		clock:   clockwork.NewRealClock(),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get unmarshals the live entry for key into dest. Expired entries report a
// miss.
func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.clock.Now().After(e.insertedAt.Add(e.ttl)) {
		return false, nil
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return false, fmt.Errorf("unmarshal cached value for %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}

	m.mu.Lock()
	m.entries[key] = entry{value: raw, insertedAt: m.clock.Now(), ttl: ttl}
	m.mu.Unlock()
	return nil
}
