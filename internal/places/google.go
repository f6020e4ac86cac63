package places

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"github.com/meety/meety/internal/domain"
)

// nearbySearcher is the slice of *maps.Client this package calls.
type nearbySearcher interface {
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
}

var _ nearbySearcher = (*maps.Client)(nil)

// placeTypes maps an activity to the provider's place type.
var placeTypes = map[domain.Activity]maps.PlaceType{
	domain.ActivityRestaurant:    maps.PlaceTypeRestaurant,
	domain.ActivityOutdoor:       maps.PlaceTypePark,
	domain.ActivitySports:        maps.PlaceTypeGym,
	domain.ActivityEntertainment: maps.PlaceTypeMovieTheater,
	domain.ActivityShopping:      maps.PlaceTypeShoppingMall,
	domain.ActivityCoffee:        maps.PlaceTypeCafe,
	domain.ActivityCulture:       maps.PlaceTypeMuseum,
	domain.ActivityNightlife:     maps.PlaceTypeNightClub,
}

// PlaceTypeFor returns the provider place type for a, defaulting to
// restaurant for anything unmapped.
func PlaceTypeFor(a domain.Activity) maps.PlaceType {
	if t, ok := placeTypes[a]; ok {
		return t
	}
	return maps.PlaceTypeRestaurant
}

// GoogleSearcher queries the Places Nearby Search API. Requests are paced by
// a token bucket so a burst of category searches cannot exhaust the quota.
type GoogleSearcher struct {
	client  nearbySearcher
	limiter *rate.Limiter
}

// NewGoogleSearcher builds a searcher for apiKey limited to rps requests per
// second. An empty apiKey yields an unavailable searcher rather than an
// error, so callers can wire it unconditionally.
func NewGoogleSearcher(apiKey string, rps float64) (*GoogleSearcher, error) {
	if apiKey == "" {
		return &GoogleSearcher{}, nil
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("places.NewGoogleSearcher: %w", err)
	}
	return newGoogleSearcher(c, rps), nil
}

func newGoogleSearcher(c nearbySearcher, rps float64) *GoogleSearcher {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &GoogleSearcher{client: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Available reports whether an API client is configured.
func (g *GoogleSearcher) Available() bool {
	return g != nil && g.client != nil
}

// Search runs one Nearby Search. The first MaxResults provider results are
// converted; any transport or API error is reported wrapped in
// ErrSourcingUnavailable.
func (g *GoogleSearcher) Search(ctx context.Context, q Query) ([]RawCandidate, error) {
	if !g.Available() {
		return nil, fmt.Errorf("places.GoogleSearcher.Search: %w", domain.ErrSourcingUnavailable)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("places.GoogleSearcher.Search: %w: %w", domain.ErrSourcingUnavailable, err)
	}

	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: q.Center.Lat, Lng: q.Center.Lng},
		Radius:   uint(clampRadius(q.RadiusKm) * 1000),
		Type:     PlaceTypeFor(q.Category),
		OpenNow:  q.OpenNow,
	})
	if err != nil {
		return nil, fmt.Errorf("places.GoogleSearcher.Search: %w: %w", domain.ErrSourcingUnavailable, err)
	}

	results := resp.Results
	if q.MaxResults > 0 && len(results) > q.MaxResults {
		results = results[:q.MaxResults]
	}

	out := make([]RawCandidate, 0, len(results))
	for _, r := range results {
		out = append(out, fromPlace(r))
	}
	return out, nil
}

// fromPlace converts a provider result. The provider omits zero ratings and
// price levels on the wire, so zero means unknown here.
func fromPlace(r maps.PlacesSearchResult) RawCandidate {
	c := RawCandidate{
		Name:        r.Name,
		ExternalRef: r.PlaceID,
		Location: domain.Coordinate{
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
			Address: firstNonEmpty(r.Vicinity, r.FormattedAddress, "Unknown address"),
		},
	}
	if c.Name == "" {
		c.Name = "Unknown Place"
	}
	if r.Rating > 0 {
		rating := float64(r.Rating)
		c.Rating = &rating
	}
	if r.PriceLevel > 0 {
		level := r.PriceLevel
		c.PriceLevel = &level
	}
	if r.OpeningHours != nil && r.OpeningHours.OpenNow != nil {
		open := *r.OpeningHours.OpenNow
		c.IsOpenNow = &open
	}
	if len(r.Photos) > 0 {
		c.PhotoRef = r.Photos[0].PhotoReference
	}
	return c
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
