// Package dedupe merges place results from multiple sources that refer to
// the same real-world entity.
package dedupe

import (
	"math"
	"sort"
	"strings"

	"urbanclear/internal/geodata/geo"
	"urbanclear/internal/geodata/models"
)

// Two places are duplicates when they sit within proximityKm of each other
// and their names are more than similarityThreshold alike.
const (
	proximityKm         = 0.05
	similarityThreshold = 0.8
)

// Places removes duplicates from a merged multi-source result set and sorts
// survivors ascending by (distance, name); places without a distance sort
// last. The first occurrence of a duplicate group wins, so callers control
// precedence through input order.
func Places(places []models.PlaceResult) []models.PlaceResult {
	unique := make([]models.PlaceResult, 0, len(places))

	for _, place := range places {
		duplicate := false
		for _, existing := range unique {
			distance := geo.HaversineKm(
				models.LatLon{Lat: place.Latitude, Lon: place.Longitude},
				models.LatLon{Lat: existing.Latitude, Lon: existing.Longitude},
			)
			if distance < proximityKm && NameSimilarity(place.Name, existing.Name) > similarityThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, place)
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		di, dj := sortDistance(unique[i]), sortDistance(unique[j])
		if di != dj {
			return di < dj
		}
		return unique[i].Name < unique[j].Name
	})
	return unique
}

// NameSimilarity computes token-level Jaccard similarity of two names,
// lower-cased. Identical names score 1, disjoint names 0.
func NameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}

	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}

func sortDistance(p models.PlaceResult) float64 {
	if p.DistanceKm == nil {
		return math.Inf(1)
	}
	return *p.DistanceKm
}
