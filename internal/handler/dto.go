package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/service"
)

// --- requests ---------------------------------------------------------------

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	CreatorName string `json:"creator_name" validate:"max=50"`
}

// JoinSessionRequest is the optional body of POST /sessions/{id}/participants.
type JoinSessionRequest struct {
	Name string `json:"name" validate:"max=50"`
}

// SetLocationRequest is the body of PUT .../location. Pointers distinguish a
// missing coordinate from a legitimate zero.
type SetLocationRequest struct {
	Lat     *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng     *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Address string   `json:"address" validate:"max=200"`
}

// SetActivityRequest is the body of PUT .../activity.
type SetActivityRequest struct {
	Activity string `json:"activity" validate:"required"`
}

// --- responses --------------------------------------------------------------

type ParticipantResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Color     string             `json:"color"`
	Location  *domain.Coordinate `json:"location"`
	Activity  *domain.Activity   `json:"activity"`
	IsReady   bool               `json:"is_ready"`
	CreatedAt time.Time          `json:"created_at"`
}

type SuggestionResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	Category           domain.Activity   `json:"category"`
	Location           domain.Coordinate `json:"location"`
	Rating             float64           `json:"rating"`
	DistanceToCenterKm float64           `json:"distance_to_center_km"`
	AverageDistanceKm  float64           `json:"average_distance_km"`
	ExternalRef        string            `json:"external_ref,omitempty"`
	PhotoRef           string            `json:"photo_ref,omitempty"`
	PriceLevel         *int              `json:"price_level"`
	IsOpenNow          *bool             `json:"is_open_now"`
}

// SessionResponse is the snapshot clients render. It is returned by the
// session routes and pushed over the websocket.
type SessionResponse struct {
	ID           uuid.UUID             `json:"id"`
	CreatedAt    time.Time             `json:"created_at"`
	IsActive     bool                  `json:"is_active"`
	ShareURL     string                `json:"share_url"`
	Participants []ParticipantResponse `json:"participants"`
	Suggestions  []SuggestionResponse  `json:"suggestions"`
	MeetingPoint *domain.Coordinate    `json:"meeting_point"`
	CanGenerate  bool                  `json:"can_generate"`
	Stale        bool                  `json:"stale"`
	Generating   bool                  `json:"generating"`
	HasMore      bool                  `json:"has_more"`
	Provider     string                `json:"provider,omitempty"`
	LastError    string                `json:"last_error,omitempty"`
}

// CreateSessionResponse returns the new session and the creator's participant
// record, whose ID the client keeps for later updates.
type CreateSessionResponse struct {
	Session     SessionResponse     `json:"session"`
	Participant ParticipantResponse `json:"participant"`
}

type MeetingPointResponse struct {
	Point             domain.Coordinate `json:"point"`
	AverageDistanceKm float64           `json:"average_distance_km"`
	WithinReach       bool              `json:"within_reach"`
	ReadyCount        int               `json:"ready_count"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type SuggestionPage struct {
	Data       []SuggestionResponse `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// --- mapping helpers --------------------------------------------------------

func participantToResponse(p domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Location:  p.Location,
		Activity:  p.Activity,
		IsReady:   p.IsReady(),
		CreatedAt: p.CreatedAt,
	}
}

func suggestionToResponse(s domain.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:                 s.ID,
		Name:               s.Name,
		Category:           s.Category,
		Location:           s.Location,
		Rating:             s.Rating,
		DistanceToCenterKm: s.DistanceToCenter,
		AverageDistanceKm:  s.AverageDistanceToParticipants,
		ExternalRef:        s.ExternalRef,
		PhotoRef:           s.PhotoRef,
		PriceLevel:         s.PriceLevel,
		IsOpenNow:          s.IsOpenNow,
	}
}

func suggestionsToResponse(in []domain.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, len(in))
	for i, s := range in {
		out[i] = suggestionToResponse(s)
	}
	return out
}

// SnapshotToResponse converts a service snapshot into its wire form.
func SnapshotToResponse(snap service.Snapshot) SessionResponse {
	ps := make([]ParticipantResponse, len(snap.Session.Participants))
	for i, p := range snap.Session.Participants {
		ps[i] = participantToResponse(p)
	}
	return SessionResponse{
		ID:           snap.Session.ID,
		CreatedAt:    snap.Session.CreatedAt,
		IsActive:     snap.Session.IsActive,
		ShareURL:     snap.ShareURL,
		Participants: ps,
		Suggestions:  suggestionsToResponse(snap.Session.Suggestions),
		MeetingPoint: snap.MeetingPoint,
		CanGenerate:  snap.CanGenerate,
		Stale:        snap.Stale,
		Generating:   snap.Generating,
		HasMore:      snap.HasMore,
		Provider:     snap.Provider,
		LastError:    snap.LastError,
	}
}
