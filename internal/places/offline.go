package places

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/geo"
)

// venueTemplates holds the names the offline generator hands out, per
// activity. Unknown activities borrow the restaurant list.
var venueTemplates = map[domain.Activity][]string{
	domain.ActivityRestaurant: {
		"Central Bistro", "The Meeting Place", "Midpoint Café", "Fusion Kitchen", "Corner Table",
		"Downtown Diner", "City Grill", "Metro Restaurant", "Urban Eatery", "Plaza Kitchen",
		"Riverside Bistro", "Garden Restaurant", "Skyline Diner", "Harbor Grill", "Summit Café",
	},
	domain.ActivityOutdoor: {
		"Central Park", "Riverside Walk", "Community Garden", "Outdoor Plaza", "Green Space",
		"City Park", "Nature Trail", "Public Garden", "Waterfront Park", "Recreation Area",
		"Botanical Garden", "Lakeside Park", "Mountain View Trail", "Sunset Point", "Forest Walk",
	},
	domain.ActivitySports: {
		"Sports Bar & Grill", "Game Zone", "Athletic Club", "Sports Lounge", "Victory Pub",
		"Champions Bar", "Stadium Grill", "Sports Center", "Active Zone", "Fitness Hub",
		"Arena Sports Bar", "Playoff Lounge", "Court Side Café", "Field House", "Training Ground",
	},
	domain.ActivityEntertainment: {
		"Cinema Complex", "Entertainment Center", "Arcade Zone", "Theater District", "Fun Palace",
		"Movie Theater", "Gaming Lounge", "Entertainment Hub", "Activity Center", "Amusement Zone",
		"Comedy Club", "Live Music Venue", "Performance Hall", "Arts Theater", "Concert Hall",
	},
	domain.ActivityShopping: {
		"Shopping Center", "Market Square", "Retail Plaza", "Mall Central", "Boutique District",
		"Shopping Mall", "Retail Hub", "Market Place", "Commercial Center", "Shopping District",
		"Fashion Plaza", "Trade Center", "Outlet Mall", "Artisan Market", "Designer District",
	},
	domain.ActivityCoffee: {
		"Central Perk", "Coffee Corner", "Bean There", "Brew Point", "Café Central",
		"Coffee House", "Espresso Bar", "Café Metro", "Coffee Station", "Brew & Bean",
		"Roastery Café", "Morning Grind", "Latte Lounge", "Caffeine Corner", "Steam & Bean",
	},
	domain.ActivityCulture: {
		"Art Gallery", "Cultural Center", "Museum Quarter", "Heritage Hall", "Creative Space",
		"Art Museum", "Cultural Hub", "Gallery District", "Arts Center", "Creative Quarter",
		"History Museum", "Science Center", "Modern Art Gallery", "Cultural Institute", "Exhibition Hall",
	},
	domain.ActivityNightlife: {
		"Night Spot", "Evening Lounge", "After Hours", "Night Scene", "Late Night Café",
		"Night Club", "Cocktail Bar", "Evening Bar", "Night Lounge", "After Dark",
		"Rooftop Bar", "Jazz Club", "Wine Bar", "Speakeasy", "Dance Club",
	},
}

const (
	offlineMinMeters     = 500.0
	offlineSpreadMeters  = 2000.0
	offlineMinRating     = 3.5
	offlineRatingSpread  = 1.5
	offlineDefaultCount  = 3
	offlineBearingJitter = 60.0
)

// OfflineSearcher synthesizes plausible venues spread around the center.
// Output is a pure function of (seed, query): the same seed and query always
// produce the same venues in the same order.
type OfflineSearcher struct {
	seed uint64
}

// NewOfflineSearcher returns a generator seeded with seed.
func NewOfflineSearcher(seed int64) *OfflineSearcher {
	return &OfflineSearcher{seed: uint64(seed)}
}

// Search returns q.MaxResults synthetic venues for q.Category. Ratings fall
// in [3.5, 5.0]; venues sit between 0.5 and 2.5 km from the center, capped
// by the query radius. Names repeat with a numeric suffix once the template
// list runs out, and each name maps to a stable ExternalRef so later batches
// dedupe cleanly against earlier ones.
func (o *OfflineSearcher) Search(ctx context.Context, q Query) ([]RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("places.OfflineSearcher.Search: %w", err)
	}

	count := q.MaxResults
	if count <= 0 {
		count = offlineDefaultCount
	}
	templates, ok := venueTemplates[q.Category]
	if !ok {
		templates = venueTemplates[domain.ActivityRestaurant]
	}
	maxMeters := clampRadius(q.RadiusKm) * 1000

	rng := rand.New(rand.NewPCG(o.seed, queryHash(q)))

	out := make([]RawCandidate, 0, count)
	for i := 0; i < count; i++ {
		name := templates[i%len(templates)]
		if round := i / len(templates); round > 0 {
			name = fmt.Sprintf("%s %d", name, round+1)
		}

		meters := math.Min(offlineMinMeters+rng.Float64()*offlineSpreadMeters, maxMeters)
		bearing := float64(i)*(360/float64(count)) + rng.Float64()*offlineBearingJitter
		loc := geo.Offset(q.Center, bearing, meters)
		loc.Address = fmt.Sprintf("%s, %.4f, %.4f", name, loc.Lat, loc.Lng)

		rating := math.Round((offlineMinRating+rng.Float64()*offlineRatingSpread)*10) / 10
		price := 1 + rng.IntN(3)
		open := rng.Float64() < 0.8

		out = append(out, RawCandidate{
			Name:        name,
			Location:    loc,
			Rating:      &rating,
			ExternalRef: fmt.Sprintf("offline-%s-%s", q.Category, slug(name)),
			PriceLevel:  &price,
			IsOpenNow:   &open,
		})
	}
	return out, nil
}

// queryHash folds the parts of q that should change the generated venues
// into the second PCG seed word.
func queryHash(q Query) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%.6f|%.6f", q.Category, q.Center.Lat, q.Center.Lng)
	return h.Sum64()
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
