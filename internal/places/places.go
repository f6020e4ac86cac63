// Package places sources raw candidate venues around a coordinate.
//
// Two Searchers exist: GoogleSearcher talks to the Places Nearby Search API,
// and OfflineSearcher synthesizes deterministic venues for environments
// without API access. Provider response shapes never leave this package;
// everything above it sees RawCandidate only.
package places

import (
	"context"

	"github.com/meety/meety/internal/domain"
)

// MaxRadiusKm caps every search radius regardless of what the caller asks.
const MaxRadiusKm = 3.0

// RawCandidate is one venue as reported by a provider, before scoring.
// Rating, PriceLevel and IsOpenNow are nil when the provider did not say.
type RawCandidate struct {
	Name        string
	Location    domain.Coordinate
	Rating      *float64
	ExternalRef string
	PhotoRef    string
	PriceLevel  *int
	IsOpenNow   *bool
}

// Query describes one category search around a center.
type Query struct {
	Center     domain.Coordinate
	Category   domain.Activity
	RadiusKm   float64
	MaxResults int
	OpenNow    bool
}

// Searcher is the candidate sourcing contract.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]RawCandidate, error)
}

// Availability is implemented by searchers whose backing service may be
// missing at runtime. Callers check it before every generation run.
type Availability interface {
	Available() bool
}

// IsAvailable reports whether s can be called. A nil searcher is
// unavailable; a searcher without an Availability method always is.
func IsAvailable(s Searcher) bool {
	if s == nil {
		return false
	}
	if a, ok := s.(Availability); ok {
		return a.Available()
	}
	return true
}

func clampRadius(km float64) float64 {
	if km <= 0 || km > MaxRadiusKm {
		return MaxRadiusKm
	}
	return km
}
