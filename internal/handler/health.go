package handler

import (
	"net/http"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/spec"
)

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}

// ListActivities handles GET /api/v1/activities.
func (s *Server) ListActivities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.ActivityTypes)
}
