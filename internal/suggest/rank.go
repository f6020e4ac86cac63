package suggest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
)

// RatingTieKm is the distance window inside which two suggestions count as
// equally close and the better-rated one wins.
const RatingTieKm = 0.5

// suggestionNamespace seeds the name-based UUIDs assigned to suggestions, so
// the same venue always gets the same ID.
var suggestionNamespace = uuid.MustParse("6f1d3c1e-5b0a-4c1e-9a57-2f4d8e7b9c10")

// IdentityKey is the deduplication key for a suggestion: the provider
// reference when there is one, otherwise the lowercased name plus the
// position rounded to four decimals (about 11 m).
func IdentityKey(s domain.Suggestion) string {
	if s.ExternalRef != "" {
		return s.ExternalRef
	}
	return fmt.Sprintf("%s-%.4f-%.4f", strings.ToLower(strings.TrimSpace(s.Name)), s.Location.Lat, s.Location.Lng)
}

// SuggestionID derives a stable ID from a suggestion's identity key.
func SuggestionID(key string) uuid.UUID {
	return uuid.NewSHA1(suggestionNamespace, []byte(key))
}

// Dedupe drops every suggestion whose identity key was already seen,
// keeping the first occurrence. Input order is preserved.
func Dedupe(in []domain.Suggestion) []domain.Suggestion {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Suggestion, 0, len(in))
	for _, s := range in {
		k := IdentityKey(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Rank orders suggestions in place: nearest to the meeting point first,
// except that within RatingTieKm of each other the higher rating wins.
// Equal keys keep their input order.
func Rank(s []domain.Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		diff := s[i].DistanceToCenter - s[j].DistanceToCenter
		if math.Abs(diff) < RatingTieKm {
			return s[i].Rating > s[j].Rating
		}
		return diff < 0
	})
}
