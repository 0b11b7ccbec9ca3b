// Package source derives fallback chains from the static source registry
// and gates adapter invocations by per-source concurrency allowances.
package source

import (
	"sort"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/models"
	"urbanclear/internal/geodata/ports"
)

// Selector computes priority-ordered fallback chains. Availability is a
// pure function of static config and quota state, re-evaluated fresh on
// every call; there is no sticky circuit state.
type Selector struct {
	registry *config.Registry
	quota    ports.QuotaTracker
}

// NewSelector builds a selector over the registry and tracker.
func NewSelector(registry *config.Registry, quota ports.QuotaTracker) *Selector {
	return &Selector{registry: registry, quota: quota}
}

// SourcesFor returns the sources able to serve a capability, ascending by
// priority. Ties keep registration order (stable sort). Disabled sources
// and credentialed tiers without a key are filtered out; quota is not
// consulted here — it changes per call and belongs to IsAvailable.
func (s *Selector) SourcesFor(capability models.Capability) []*config.SourceConfig {
	var out []*config.SourceConfig
	for _, src := range s.registry.All() {
		if !src.Enabled || !src.Supports(capability) || !src.Credentialed() {
			continue
		}
		out = append(out, src)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// IsAvailable reports whether the source can take a request right now:
// enabled, credentialed, and under budget in all quota windows.
func (s *Selector) IsAvailable(src *config.SourceConfig) bool {
	if src == nil || !src.Enabled || !src.Credentialed() {
		return false
	}
	return s.quota.CanMakeRequest(src.Name)
}
