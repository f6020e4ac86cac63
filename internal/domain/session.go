package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one person taking part in a session.
// Location and Activity are nil until the participant sets them; readiness is
// derived from both and never stored separately.
type Participant struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Name      string
	Location  *Coordinate
	Activity  *Activity
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsReady reports whether the participant has both a location and an activity.
func (p Participant) IsReady() bool {
	return p.Location != nil && p.Activity != nil
}

// ReadyParticipants returns the ready subset of ps, preserving order.
func ReadyParticipants(ps []Participant) []Participant {
	ready := make([]Participant, 0, len(ps))
	for _, p := range ps {
		if p.IsReady() {
			ready = append(ready, p)
		}
	}
	return ready
}

// Session is one meetup negotiation. Participants are ordered by join time;
// Suggestions by rank.
//
// Fingerprint and FingerprintCount record the participant configuration the
// current suggestions were generated from. Both are empty/zero when no
// suggestions have been generated since the last invalidation.
type Session struct {
	ID               uuid.UUID
	CreatedAt        time.Time
	IsActive         bool
	Fingerprint      string
	FingerprintCount int
	Participants     []Participant
	Suggestions      []Suggestion
}

// Suggestion is one ranked venue produced by the suggestion engine.
// Distances are in kilometres. Optional provider fields are nil when unknown.
type Suggestion struct {
	ID                            uuid.UUID
	Name                          string
	Category                      Activity
	Location                      Coordinate
	Rating                        float64
	DistanceToCenter              float64
	AverageDistanceToParticipants float64
	ExternalRef                   string
	PhotoRef                      string
	PriceLevel                    *int
	IsOpenNow                     *bool
}
