package handler

import (
	"net/http"

	"github.com/meety/meety/internal/domain"
)

const (
	sessionNotFound     = "session not found"
	participantNotFound = "participant not found"
)

// CreateSession handles POST /api/v1/sessions.
// The body is optional; without a creator name the creator is called "User 1".
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decodeBody(w, r, &req, true) {
		return
	}

	snap, creator, err := s.sessions.Create(r.Context(), req.CreatorName)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		Session:     SnapshotToResponse(snap),
		Participant: participantToResponse(creator),
	})
}

// GetSession handles GET /api/v1/sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}

	snap, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotToResponse(snap))
}

// CloseSession handles DELETE /api/v1/sessions/{sessionId}.
// Closing an already closed session also answers 204.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}

	if err := s.sessions.Close(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinSession handles POST /api/v1/sessions/{sessionId}/participants.
func (s *Server) JoinSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}
	var req JoinSessionRequest
	if !s.decodeBody(w, r, &req, true) {
		return
	}

	p, err := s.sessions.Join(r.Context(), id, req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, participantToResponse(p))
}

// SetLocation handles PUT .../participants/{participantId}/location.
func (s *Server) SetLocation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}
	participantID, ok := pathUUID(w, r, "participantId")
	if !ok {
		return
	}
	var req SetLocationRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	loc := domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng, Address: req.Address}
	p, err := s.sessions.SetLocation(r.Context(), sessionID, participantID, loc)
	if err != nil {
		s.writeServiceError(w, r, err, participantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, participantToResponse(p))
}

// SetActivity handles PUT .../participants/{participantId}/activity.
func (s *Server) SetActivity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}
	participantID, ok := pathUUID(w, r, "participantId")
	if !ok {
		return
	}
	var req SetActivityRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	p, err := s.sessions.SetActivity(r.Context(), sessionID, participantID, req.Activity)
	if err != nil {
		s.writeServiceError(w, r, err, participantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, participantToResponse(p))
}

// LeaveSession handles DELETE .../participants/{participantId}.
func (s *Server) LeaveSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}
	participantID, ok := pathUUID(w, r, "participantId")
	if !ok {
		return
	}

	if err := s.sessions.Leave(r.Context(), sessionID, participantID); err != nil {
		s.writeServiceError(w, r, err, participantNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMeetingPoint handles GET /api/v1/sessions/{sessionId}/meeting-point.
// It answers 409 until at least one participant is ready.
func (s *Server) GetMeetingPoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}

	mp, err := s.sessions.MeetingPoint(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MeetingPointResponse{
		Point:             mp.Point,
		AverageDistanceKm: mp.AverageDistanceKm,
		WithinReach:       mp.WithinReach,
		ReadyCount:        mp.ReadyCount,
	})
}
