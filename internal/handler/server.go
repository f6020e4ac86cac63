// Package handler implements the HTTP handlers for the Meety API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, session.go, suggestion.go, websocket.go) but all share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/middleware"
	"github.com/meety/meety/internal/realtime"
	"github.com/meety/meety/internal/service"
)

// SessionServicer defines the business operations the session handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type SessionServicer interface {
	Create(ctx context.Context, creatorName string) (service.Snapshot, domain.Participant, error)
	Get(ctx context.Context, id uuid.UUID) (service.Snapshot, error)
	Close(ctx context.Context, id uuid.UUID) error
	Join(ctx context.Context, sessionID uuid.UUID, name string) (domain.Participant, error)
	SetLocation(ctx context.Context, sessionID, participantID uuid.UUID, loc domain.Coordinate) (domain.Participant, error)
	SetActivity(ctx context.Context, sessionID, participantID uuid.UUID, activity string) (domain.Participant, error)
	Leave(ctx context.Context, sessionID, participantID uuid.UUID) error
	MeetingPoint(ctx context.Context, sessionID uuid.UUID) (service.MeetingPointView, error)
	Generate(ctx context.Context, sessionID uuid.UUID, maxResults int) (service.Snapshot, error)
	LoadMore(ctx context.Context, sessionID uuid.UUID) (service.Snapshot, error)
	ListSuggestions(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error)
}

// Server holds the dependencies every handler shares.
type Server struct {
	sessions SessionServicer
	hub      *realtime.Hub
	upgrader *websocket.Upgrader
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer constructs the Server with all its dependencies. hub and upgrader
// may be nil when the websocket route is not needed.
func NewServer(sessions SessionServicer, hub *realtime.Hub, upgrader *websocket.Upgrader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions: sessions,
		hub:      hub,
		upgrader: upgrader,
		validate: newValidator(),
		logger:   logger,
	}
}

// RouteOptions configures the per-route middleware Routes installs.
type RouteOptions struct {
	// RateLimiter guards mutating and generation routes. Nil disables it.
	RateLimiter *middleware.IPRateLimiter
	// MaxBodyBytes caps request bodies. Zero disables the cap.
	MaxBodyBytes int64
}

// Routes returns the API router. Cross-cutting middleware (request IDs,
// logging, CORS, recovery) is installed by the caller.
func (s *Server) Routes(opts RouteOptions) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if opts.MaxBodyBytes > 0 {
			r.Use(middleware.NewMaxBodySizeHandler(opts.MaxBodyBytes))
		}

		r.Get("/activities", s.ListActivities)

		// Reads are not rate limited.
		r.Get("/sessions/{sessionId}", s.GetSession)
		r.Get("/sessions/{sessionId}/meeting-point", s.GetMeetingPoint)
		r.Get("/sessions/{sessionId}/suggestions", s.ListSuggestions)

		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(middleware.NewRateLimitHandler(opts.RateLimiter))
			}
			r.Post("/sessions", s.CreateSession)
			r.Delete("/sessions/{sessionId}", s.CloseSession)
			r.Post("/sessions/{sessionId}/participants", s.JoinSession)
			r.Put("/sessions/{sessionId}/participants/{participantId}/location", s.SetLocation)
			r.Put("/sessions/{sessionId}/participants/{participantId}/activity", s.SetActivity)
			r.Delete("/sessions/{sessionId}/participants/{participantId}", s.LeaveSession)
			r.Post("/sessions/{sessionId}/suggestions", s.GenerateSuggestions)
			r.Post("/sessions/{sessionId}/suggestions/more", s.LoadMoreSuggestions)
		})
	})

	r.Get("/ws/sessions/{sessionId}", s.SessionWebsocket)
	return r
}
