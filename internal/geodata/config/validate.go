package config

import (
	"fmt"
	"strings"

	"urbanclear/internal/geodata/models"
)

// SourceStatus is the per-source entry of a validation report.
type SourceStatus struct {
	Enabled        bool                `json:"enabled"`
	HasCredentials bool                `json:"has_credentials"`
	Tier           models.Tier         `json:"tier"`
	SupportedTypes []models.Capability `json:"supported_types"`
}

// ValidationReport summarizes startup configuration health.
type ValidationReport struct {
	Valid           bool                    `json:"valid"`
	Sources         map[string]SourceStatus `json:"sources"`
	MissingKeys     []string                `json:"missing_keys"`
	Recommendations []string                `json:"recommendations"`
}

// Validate checks the registry for missing credentials on enabled sources
// and returns a report suitable for startup logging. An enabled freemium or
// premium source without an API key marks the configuration invalid.
func (r *Registry) Validate() ValidationReport {
	report := ValidationReport{
		Valid:   true,
		Sources: make(map[string]SourceStatus, len(r.sources)),
	}

	hasPremium := false
	for _, src := range r.sources {
		status := SourceStatus{
			Enabled:        src.Enabled,
			HasCredentials: src.Credentialed(),
			Tier:           src.Tier,
			SupportedTypes: src.Capabilities,
		}
		if !src.Credentialed() {
			report.MissingKeys = append(report.MissingKeys, strings.ToUpper(src.Name)+"_API_KEY")
			if src.Enabled {
				report.Valid = false
			}
		}
		if src.Enabled && src.Tier == models.TierPremium && src.Credentialed() {
			hasPremium = true
		}
		report.Sources[src.Name] = status
	}

	if !hasPremium {
		report.Recommendations = append(report.Recommendations,
			"consider adding a premium API key for better data quality")
	}
	return report
}

// CostEstimate is a rough spend projection for a number of requests.
type CostEstimate struct {
	Source            string      `json:"source"`
	Tier              models.Tier `json:"tier"`
	Requests          int         `json:"requests"`
	EstimatedCostUSD  float64     `json:"estimated_cost_usd"`
	FreeTierRemaining int         `json:"free_tier_remaining"`
}

// Rough per-1000-request prices; update when provider pricing changes.
var costPer1000 = map[string]float64{
	"google_maps": 5.0,
	"here_api":    4.0,
}

// EstimateCost projects the cost of the given number of requests against a
// source, using the monthly budget as the free tier bound.
func (r *Registry) EstimateCost(sourceName string, requests int, monthUsed int) (CostEstimate, error) {
	src := r.Get(sourceName)
	if src == nil {
		return CostEstimate{}, fmt.Errorf("unknown source: %s", sourceName)
	}

	remaining := src.RateLimits.RequestsPerMonth - monthUsed
	if remaining < 0 {
		remaining = 0
	}
	cost := float64(requests) / 1000 * costPer1000[sourceName]
	return CostEstimate{
		Source:            src.DisplayName,
		Tier:              src.Tier,
		Requests:          requests,
		EstimatedCostUSD:  cost,
		FreeTierRemaining: remaining,
	}, nil
}
