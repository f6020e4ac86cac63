// Package service contains the business logic for the Meety API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/events"
	"github.com/meety/meety/internal/meeting"
	"github.com/meety/meety/internal/repo"
	"github.com/meety/meety/internal/suggest"
)

// participantColors is handed out round-robin in join order.
var participantColors = []string{"#3b82f6", "#8b5cf6", "#f59e0b", "#14b8a6", "#ef4444", "#ec4899"}

// Notifier receives a fresh snapshot whenever a session's visible state
// changes. The websocket hub implements it.
type Notifier interface {
	Notify(sessionID uuid.UUID, snap Snapshot)
}

// Snapshot is everything a client needs to render a session.
type Snapshot struct {
	Session      domain.Session
	ShareURL     string
	MeetingPoint *domain.Coordinate
	CanGenerate  bool
	Stale        bool
	Generating   bool
	HasMore      bool
	Provider     string
	LastError    string
}

// MeetingPointView is the meeting-point preview for a session.
type MeetingPointView struct {
	Point             domain.Coordinate
	AverageDistanceKm float64
	WithinReach       bool
	ReadyCount        int
}

// Deps groups SessionService collaborators.
type Deps struct {
	Sessions     repo.SessionRepo
	Participants repo.ParticipantRepo
	Suggestions  repo.SuggestionRepo
	Engine       *suggest.Engine
	Bus          events.Bus
	Notifier     Notifier // optional
	Logger       *slog.Logger
	// Origin tags every published event so this process can skip its own.
	Origin       string
	ShareBaseURL string
}

// SessionService implements session, participant, and suggestion operations.
// It keeps one Coordinator per session it has touched; coordinators are
// released when the session closes or the service shuts down.
type SessionService struct {
	sessions     repo.SessionRepo
	participants repo.ParticipantRepo
	suggestions  repo.SuggestionRepo
	engine       *suggest.Engine
	bus          events.Bus
	notifier     Notifier
	logger       *slog.Logger
	origin       string
	shareBaseURL string

	mu           sync.Mutex
	coordinators map[uuid.UUID]*Coordinator
}

// NewSessionService constructs a SessionService from d.
func NewSessionService(d Deps) *SessionService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origin := d.Origin
	if origin == "" {
		origin = uuid.NewString()
	}
	return &SessionService{
		sessions:     d.Sessions,
		participants: d.Participants,
		suggestions:  d.Suggestions,
		engine:       d.Engine,
		bus:          d.Bus,
		notifier:     d.Notifier,
		logger:       logger,
		origin:       origin,
		shareBaseURL: strings.TrimRight(d.ShareBaseURL, "/"),
		coordinators: make(map[uuid.UUID]*Coordinator),
	}
}

// Origin returns the tag this service stamps on published events.
func (s *SessionService) Origin() string { return s.origin }

// ShareURL returns the link other participants open to join id.
func (s *SessionService) ShareURL(id uuid.UUID) string {
	return s.shareBaseURL + "?session=" + url.QueryEscape(id.String())
}

// Create starts a session and joins its creator under creatorName.
func (s *SessionService) Create(ctx context.Context, creatorName string) (Snapshot, domain.Participant, error) {
	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return Snapshot{}, domain.Participant{}, fmt.Errorf("service.SessionService.Create: %w", err)
	}
	s.publish(ctx, sess.ID, domain.TableSessions, domain.EventInsert, sess, nil)

	creator, err := s.Join(ctx, sess.ID, creatorName)
	if err != nil {
		return Snapshot{}, domain.Participant{}, fmt.Errorf("service.SessionService.Create: %w", err)
	}

	snap, err := s.Get(ctx, sess.ID)
	if err != nil {
		return Snapshot{}, domain.Participant{}, fmt.Errorf("service.SessionService.Create: %w", err)
	}
	return snap, creator, nil
}

// Get returns the current snapshot of a session, open or closed.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("service.SessionService.Get: %w", err)
	}

	// Closed sessions are read without registering a coordinator.
	c := newCoordinator(id, s)
	if sess.IsActive {
		c = s.coordinator(id)
	}
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("service.SessionService.Get: %w", err)
	}
	return snap, nil
}

// Close ends a session. Closing an already closed session is a no-op.
func (s *SessionService) Close(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Close(ctx, id); err != nil {
		return fmt.Errorf("service.SessionService.Close: %w", err)
	}
	s.publish(ctx, id, domain.TableSessions, domain.EventUpdate, map[string]any{"id": id, "is_active": false}, nil)

	if c := s.release(id); c != nil {
		s.notify(ctx, c)
	}
	return nil
}

// Join adds a participant. An empty name becomes "User N" where N is the
// participant's position in the session.
func (s *SessionService) Join(ctx context.Context, sessionID uuid.UUID, name string) (domain.Participant, error) {
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.Join: %w", err)
	}

	n, err := s.participants.Count(ctx, sessionID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.Join: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("User %d", n+1)
	}

	p, err := s.participants.Create(ctx, domain.Participant{
		SessionID: sessionID,
		Name:      name,
		Color:     participantColors[n%len(participantColors)],
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.Join: %w", err)
	}

	s.publish(ctx, sessionID, domain.TableParticipants, domain.EventInsert, p, nil)
	s.coordinator(sessionID).Reconcile(ctx)
	return p, nil
}

// SetLocation validates and stores a participant's location.
func (s *SessionService) SetLocation(ctx context.Context, sessionID, participantID uuid.UUID, loc domain.Coordinate) (domain.Participant, error) {
	if err := loc.Validate(); err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.SetLocation: %w", err)
	}
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.SetLocation: %w", err)
	}

	p, err := s.participants.UpdateLocation(ctx, sessionID, participantID, &loc)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.SetLocation: %w", err)
	}

	s.publish(ctx, sessionID, domain.TableParticipants, domain.EventUpdate, p, nil)
	s.coordinator(sessionID).Reconcile(ctx)
	return p, nil
}

// SetActivity validates and stores a participant's activity.
func (s *SessionService) SetActivity(ctx context.Context, sessionID, participantID uuid.UUID, activity string) (domain.Participant, error) {
	a, err := domain.ParseActivity(activity)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.SetActivity: %w", err)
	}
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.SetActivity: %w", err)
	}

	p, err := s.participants.UpdateActivity(ctx, sessionID, participantID, &a)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("service.SessionService.SetActivity: %w", err)
	}

	s.publish(ctx, sessionID, domain.TableParticipants, domain.EventUpdate, p, nil)
	s.coordinator(sessionID).Reconcile(ctx)
	return p, nil
}

// Leave removes a participant from a session.
func (s *SessionService) Leave(ctx context.Context, sessionID, participantID uuid.UUID) error {
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("service.SessionService.Leave: %w", err)
	}
	if err := s.participants.Delete(ctx, sessionID, participantID); err != nil {
		return fmt.Errorf("service.SessionService.Leave: %w", err)
	}

	s.publish(ctx, sessionID, domain.TableParticipants, domain.EventDelete, nil, map[string]any{"id": participantID})
	s.coordinator(sessionID).Reconcile(ctx)
	return nil
}

// MeetingPoint previews where the group would meet right now.
// Returns ErrInsufficientParticipants when nobody is ready.
func (s *SessionService) MeetingPoint(ctx context.Context, sessionID uuid.UUID) (MeetingPointView, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return MeetingPointView{}, fmt.Errorf("service.SessionService.MeetingPoint: %w", err)
	}
	ps, err := s.participants.ListBySession(ctx, sessionID)
	if err != nil {
		return MeetingPointView{}, fmt.Errorf("service.SessionService.MeetingPoint: %w", err)
	}

	point, err := meeting.ComputeMeetingPoint(ps)
	if err != nil {
		return MeetingPointView{}, fmt.Errorf("service.SessionService.MeetingPoint: %w", err)
	}
	return MeetingPointView{
		Point:             point,
		AverageDistanceKm: meeting.AverageDistance(point, ps),
		WithinReach:       meeting.ValidateMeetingLocation(point, ps, meeting.DefaultMaxReachKm),
		ReadyCount:        len(domain.ReadyParticipants(ps)),
	}, nil
}

// Generate replaces the session's suggestions with a fresh ranked list.
// While another run for the same session is in flight, the call returns the
// current snapshot with Generating set instead of starting a second run.
func (s *SessionService) Generate(ctx context.Context, sessionID uuid.UUID, maxResults int) (Snapshot, error) {
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return Snapshot{}, fmt.Errorf("service.SessionService.Generate: %w", err)
	}
	snap, err := s.coordinator(sessionID).Generate(ctx, maxResults)
	if err != nil {
		return Snapshot{}, fmt.Errorf("service.SessionService.Generate: %w", err)
	}
	return snap, nil
}

// LoadMore extends the session's suggestions by one batch.
func (s *SessionService) LoadMore(ctx context.Context, sessionID uuid.UUID) (Snapshot, error) {
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return Snapshot{}, fmt.Errorf("service.SessionService.LoadMore: %w", err)
	}
	snap, err := s.coordinator(sessionID).LoadMore(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("service.SessionService.LoadMore: %w", err)
	}
	return snap, nil
}

// ListSuggestions returns one page of a session's suggestions and the total count.
func (s *SessionService) ListSuggestions(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, 0, fmt.Errorf("service.SessionService.ListSuggestions: %w", err)
	}
	out, total, err := s.suggestions.ListPaged(ctx, sessionID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.SessionService.ListSuggestions: %w", err)
	}
	return out, total, nil
}

// Shutdown unsubscribes every coordinator from the bus.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.coordinators))
	for id := range s.coordinators {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.release(id)
	}
}

// activeSession loads a session and rejects closed ones.
func (s *SessionService) activeSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.IsActive {
		return domain.Session{}, domain.ErrSessionClosed
	}
	return sess, nil
}

// coordinator returns the session's coordinator, creating and subscribing
// it on first use.
func (s *SessionService) coordinator(id uuid.UUID) *Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.coordinators[id]; ok {
		return c
	}
	c := newCoordinator(id, s)
	if s.bus != nil {
		sub, err := s.bus.Subscribe(id, c.handleEvent)
		if err != nil {
			s.logger.Warn("subscribe to session events failed", "session_id", id, "error", err)
		} else {
			c.sub = sub
		}
	}
	s.coordinators[id] = c
	return c
}

// release drops and unsubscribes a session's coordinator, returning it if
// there was one.
func (s *SessionService) release(id uuid.UUID) *Coordinator {
	s.mu.Lock()
	c, ok := s.coordinators[id]
	delete(s.coordinators, id)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			s.logger.Warn("unsubscribe from session events failed", "session_id", id, "error", err)
		}
	}
	return c
}

// activeCoordinators reports how many sessions currently hold a coordinator.
func (s *SessionService) activeCoordinators() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.coordinators)
}

// publish emits a change event. Failures are logged; the mutation that
// caused the event has already been committed.
func (s *SessionService) publish(ctx context.Context, sessionID uuid.UUID, table string, typ domain.EventType, newRow, oldRow any) {
	if s.bus == nil {
		return
	}
	ev := domain.ChangeEvent{
		Table:     table,
		Type:      typ,
		SessionID: sessionID,
		Origin:    s.origin,
		NewRow:    rawJSON(newRow),
		OldRow:    rawJSON(oldRow),
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish change event failed",
			"session_id", sessionID, "table", table, "error", err)
	}
}

func (s *SessionService) notify(ctx context.Context, c *Coordinator) {
	if s.notifier == nil {
		return
	}
	snap, err := c.Snapshot(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "build snapshot for push failed", "session_id", c.sessionID, "error", err)
		}
		return
	}
	s.notifier.Notify(c.sessionID, snap)
}

func rawJSON(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
