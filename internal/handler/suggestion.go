package handler

import (
	"fmt"
	"net/http"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/service"
)

// maxResultsLimit bounds the max_results query parameter.
const maxResultsLimit = 50

// GenerateSuggestions handles POST /api/v1/sessions/{sessionId}/suggestions.
// A run already in progress for the session answers 202 with the current
// snapshot instead of starting a second one.
func (s *Server) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}
	maxResults, ok := queryInt(w, r, "max_results")
	if !ok {
		return
	}
	n := 0
	if maxResults != nil {
		if *maxResults < 1 || *maxResults > maxResultsLimit {
			requestError(w, fmt.Sprintf("max_results must be between 1 and %d", maxResultsLimit))
			return
		}
		n = *maxResults
	}

	snap, err := s.sessions.Generate(r.Context(), id, n)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeSnapshot(w, snap)
}

// LoadMoreSuggestions handles POST /api/v1/sessions/{sessionId}/suggestions/more.
func (s *Server) LoadMoreSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}

	snap, err := s.sessions.LoadMore(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeSnapshot(w, snap)
}

// ListSuggestions handles GET /api/v1/sessions/{sessionId}/suggestions.
func (s *Server) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	p := domain.NewPaginationParams(page, limit)

	items, total, err := s.sessions.ListSuggestions(r.Context(), id, p)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, SuggestionPage{
		Data:       suggestionsToResponse(items),
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: int(total)},
	})
}

func writeSnapshot(w http.ResponseWriter, snap service.Snapshot) {
	status := http.StatusOK
	if snap.Generating {
		status = http.StatusAccepted
	}
	writeJSON(w, status, SnapshotToResponse(snap))
}
