package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/handler"
	"github.com/meety/meety/internal/service"
)

// mockSessionServicer is a test double for handler.SessionServicer.
// Set only the method fields your test needs.
type mockSessionServicer struct {
	create          func(ctx context.Context, creatorName string) (service.Snapshot, domain.Participant, error)
	get             func(ctx context.Context, id uuid.UUID) (service.Snapshot, error)
	close           func(ctx context.Context, id uuid.UUID) error
	join            func(ctx context.Context, sessionID uuid.UUID, name string) (domain.Participant, error)
	setLocation     func(ctx context.Context, sessionID, participantID uuid.UUID, loc domain.Coordinate) (domain.Participant, error)
	setActivity     func(ctx context.Context, sessionID, participantID uuid.UUID, activity string) (domain.Participant, error)
	leave           func(ctx context.Context, sessionID, participantID uuid.UUID) error
	meetingPoint    func(ctx context.Context, sessionID uuid.UUID) (service.MeetingPointView, error)
	generate        func(ctx context.Context, sessionID uuid.UUID, maxResults int) (service.Snapshot, error)
	loadMore        func(ctx context.Context, sessionID uuid.UUID) (service.Snapshot, error)
	listSuggestions func(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error)
}

func (m *mockSessionServicer) Create(ctx context.Context, creatorName string) (service.Snapshot, domain.Participant, error) {
	return m.create(ctx, creatorName)
}
func (m *mockSessionServicer) Get(ctx context.Context, id uuid.UUID) (service.Snapshot, error) {
	return m.get(ctx, id)
}
func (m *mockSessionServicer) Close(ctx context.Context, id uuid.UUID) error {
	return m.close(ctx, id)
}
func (m *mockSessionServicer) Join(ctx context.Context, sessionID uuid.UUID, name string) (domain.Participant, error) {
	return m.join(ctx, sessionID, name)
}
func (m *mockSessionServicer) SetLocation(ctx context.Context, sessionID, participantID uuid.UUID, loc domain.Coordinate) (domain.Participant, error) {
	return m.setLocation(ctx, sessionID, participantID, loc)
}
func (m *mockSessionServicer) SetActivity(ctx context.Context, sessionID, participantID uuid.UUID, activity string) (domain.Participant, error) {
	return m.setActivity(ctx, sessionID, participantID, activity)
}
func (m *mockSessionServicer) Leave(ctx context.Context, sessionID, participantID uuid.UUID) error {
	return m.leave(ctx, sessionID, participantID)
}
func (m *mockSessionServicer) MeetingPoint(ctx context.Context, sessionID uuid.UUID) (service.MeetingPointView, error) {
	return m.meetingPoint(ctx, sessionID)
}
func (m *mockSessionServicer) Generate(ctx context.Context, sessionID uuid.UUID, maxResults int) (service.Snapshot, error) {
	return m.generate(ctx, sessionID, maxResults)
}
func (m *mockSessionServicer) LoadMore(ctx context.Context, sessionID uuid.UUID) (service.Snapshot, error) {
	return m.loadMore(ctx, sessionID)
}
func (m *mockSessionServicer) ListSuggestions(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error) {
	return m.listSuggestions(ctx, sessionID, p)
}

// compile-time check: mockSessionServicer must satisfy handler.SessionServicer.
var _ handler.SessionServicer = (*mockSessionServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mock the way main.go does,
// minus the websocket hub.
func newHTTPHandler(svc handler.SessionServicer) http.Handler {
	return handler.NewServer(svc, nil, nil, nil).Routes(handler.RouteOptions{})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func ptr[T any](v T) *T { return &v }

func participantFixture(sessionID uuid.UUID, name string, ready bool) domain.Participant {
	p := domain.Participant{
		ID:        uuid.New(),
		SessionID: sessionID,
		Name:      name,
		Color:     "#3b82f6",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if ready {
		p.Location = &domain.Coordinate{Lat: 40.7128, Lng: -74.006, Address: "New York"}
		p.Activity = ptr(domain.ActivityCoffee)
	}
	return p
}

func snapshotFixture() service.Snapshot {
	id := uuid.New()
	return service.Snapshot{
		Session: domain.Session{
			ID:        id,
			CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			IsActive:  true,
			Participants: []domain.Participant{
				participantFixture(id, "Ada", true),
				participantFixture(id, "Grace", false),
			},
			Suggestions: []domain.Suggestion{{
				ID:               uuid.New(),
				Name:             "Blue Bottle",
				Category:         domain.ActivityCoffee,
				Location:         domain.Coordinate{Lat: 40.713, Lng: -74.005},
				Rating:           4.5,
				DistanceToCenter: 0.2,
			}},
		},
		ShareURL:     "https://meety.app?session=" + id.String(),
		MeetingPoint: &domain.Coordinate{Lat: 40.7128, Lng: -74.006},
		CanGenerate:  true,
		Provider:     "offline",
	}
}
