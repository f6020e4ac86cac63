// Package meeting derives group-level facts from a participant list: the
// meeting point, distance aggregates, activity preferences, and the
// configuration fingerprint used to detect stale suggestions.
package meeting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/geo"
)

// DefaultMaxReachKm is the radius ValidateMeetingLocation uses when callers
// have no stronger opinion.
const DefaultMaxReachKm = 50.0

// ComputeMeetingPoint returns the point the group should meet around.
//
// One ready participant: their own location. Two or more: the
// coordinate-wise median of the ready locations. The Address is a
// placeholder carrying the numeric position and which rule produced it.
// Returns ErrInsufficientParticipants when nobody is ready.
func ComputeMeetingPoint(participants []domain.Participant) (domain.Coordinate, error) {
	ready := domain.ReadyParticipants(participants)
	if len(ready) == 0 {
		return domain.Coordinate{}, fmt.Errorf("meeting.ComputeMeetingPoint: %w", domain.ErrInsufficientParticipants)
	}

	if len(ready) == 1 {
		loc := *ready[0].Location
		return domain.Coordinate{
			Lat:     loc.Lat,
			Lng:     loc.Lng,
			Address: fmt.Sprintf("%.6f, %.6f (User Location)", loc.Lat, loc.Lng),
		}, nil
	}

	center := geo.CoordinatewiseMedian(locations(ready))
	center.Address = fmt.Sprintf("%.6f, %.6f (Median Center Point)", center.Lat, center.Lng)
	return *center, nil
}

// AverageDistance is the mean great-circle distance in km from point to
// each ready participant. Zero when nobody is ready.
func AverageDistance(point domain.Coordinate, participants []domain.Participant) float64 {
	ready := domain.ReadyParticipants(participants)
	if len(ready) == 0 {
		return 0
	}

	var total float64
	for _, p := range ready {
		total += geo.Distance(point, *p.Location)
	}
	return total / float64(len(ready))
}

// RankedActivities lists the activities chosen by ready participants, most
// popular first. Ties keep the order in which the activity was first seen.
func RankedActivities(participants []domain.Participant) []domain.Activity {
	counts := make(map[domain.Activity]int)
	var order []domain.Activity
	for _, p := range domain.ReadyParticipants(participants) {
		a := *p.Activity
		if _, seen := counts[a]; !seen {
			order = append(order, a)
		}
		counts[a]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

// ValidateMeetingLocation reports whether every ready participant is within
// maxKm of point.
func ValidateMeetingLocation(point domain.Coordinate, participants []domain.Participant, maxKm float64) bool {
	for _, p := range domain.ReadyParticipants(participants) {
		if geo.Distance(point, *p.Location) > maxKm {
			return false
		}
	}
	return true
}

// Fingerprint is an order-independent digest of the ready participants'
// id, position and activity. Two participant lists that hold the same
// ready configuration in any order produce the same fingerprint; the
// empty configuration produces the digest of the empty string.
func Fingerprint(participants []domain.Participant) string {
	ready := domain.ReadyParticipants(participants)

	parts := make([]string, 0, len(ready))
	for _, p := range ready {
		parts = append(parts, strings.Join([]string{
			p.ID.String(),
			strconv.FormatFloat(p.Location.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Location.Lng, 'f', -1, 64),
			string(*p.Activity),
		}, "|"))
	}
	// The id leads each part, so sorting the encoded parts sorts by id.
	sort.Strings(parts)

	sum := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:])
}

// IsStale reports whether the fingerprint and participant count recorded on s
// at generation time differ from its current participants. A session that
// has never generated is not stale; it simply has nothing to show.
func IsStale(s domain.Session) bool {
	if s.Fingerprint == "" {
		return false
	}
	return Fingerprint(s.Participants) != s.Fingerprint || len(s.Participants) != s.FingerprintCount
}

func locations(ps []domain.Participant) []domain.Coordinate {
	out := make([]domain.Coordinate, len(ps))
	for i, p := range ps {
		out[i] = *p.Location
	}
	return out
}
