package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/repo"
	"github.com/meety/meety/internal/service"
)

// mockSessionRepo is a hand-written test double for repo.SessionRepo.
// Each method is a function field; set only the ones your test needs.
type mockSessionRepo struct {
	create         func(ctx context.Context) (domain.Session, error)
	getByID        func(ctx context.Context, id uuid.UUID) (domain.Session, error)
	close          func(ctx context.Context, id uuid.UUID) error
	setFingerprint func(ctx context.Context, id uuid.UUID, fp string, n int) error
}

func (m *mockSessionRepo) Create(ctx context.Context) (domain.Session, error) {
	return m.create(ctx)
}
func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	return m.getByID(ctx, id)
}
func (m *mockSessionRepo) Close(ctx context.Context, id uuid.UUID) error {
	return m.close(ctx, id)
}
func (m *mockSessionRepo) SetFingerprint(ctx context.Context, id uuid.UUID, fp string, n int) error {
	return m.setFingerprint(ctx, id, fp, n)
}

type mockParticipantRepo struct {
	create         func(ctx context.Context, p domain.Participant) (domain.Participant, error)
	getByID        func(ctx context.Context, sessionID, id uuid.UUID) (domain.Participant, error)
	listBySession  func(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error)
	count          func(ctx context.Context, sessionID uuid.UUID) (int, error)
	updateLocation func(ctx context.Context, sessionID, id uuid.UUID, loc *domain.Coordinate) (domain.Participant, error)
	updateActivity func(ctx context.Context, sessionID, id uuid.UUID, a *domain.Activity) (domain.Participant, error)
	delete         func(ctx context.Context, sessionID, id uuid.UUID) error
}

func (m *mockParticipantRepo) Create(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	return m.create(ctx, p)
}
func (m *mockParticipantRepo) GetByID(ctx context.Context, sessionID, id uuid.UUID) (domain.Participant, error) {
	return m.getByID(ctx, sessionID, id)
}
func (m *mockParticipantRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
	return m.listBySession(ctx, sessionID)
}
func (m *mockParticipantRepo) Count(ctx context.Context, sessionID uuid.UUID) (int, error) {
	return m.count(ctx, sessionID)
}
func (m *mockParticipantRepo) UpdateLocation(ctx context.Context, sessionID, id uuid.UUID, loc *domain.Coordinate) (domain.Participant, error) {
	return m.updateLocation(ctx, sessionID, id, loc)
}
func (m *mockParticipantRepo) UpdateActivity(ctx context.Context, sessionID, id uuid.UUID, a *domain.Activity) (domain.Participant, error) {
	return m.updateActivity(ctx, sessionID, id, a)
}
func (m *mockParticipantRepo) Delete(ctx context.Context, sessionID, id uuid.UUID) error {
	return m.delete(ctx, sessionID, id)
}

type mockSuggestionRepo struct {
	deleteBySession func(ctx context.Context, sessionID uuid.UUID) (int64, error)
	insertAll       func(ctx context.Context, sessionID uuid.UUID, s []domain.Suggestion) error
	listBySession   func(ctx context.Context, sessionID uuid.UUID) ([]domain.Suggestion, error)
	listPaged       func(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error)
}

func (m *mockSuggestionRepo) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return m.deleteBySession(ctx, sessionID)
}
func (m *mockSuggestionRepo) InsertAll(ctx context.Context, sessionID uuid.UUID, s []domain.Suggestion) error {
	return m.insertAll(ctx, sessionID, s)
}
func (m *mockSuggestionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Suggestion, error) {
	return m.listBySession(ctx, sessionID)
}
func (m *mockSuggestionRepo) ListPaged(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error) {
	return m.listPaged(ctx, sessionID, p)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.SessionRepo     = (*mockSessionRepo)(nil)
	_ repo.ParticipantRepo = (*mockParticipantRepo)(nil)
	_ repo.SuggestionRepo  = (*mockSuggestionRepo)(nil)
)

// recordingNotifier collects every pushed snapshot.
type recordingNotifier struct {
	mu    sync.Mutex
	snaps []service.Snapshot
}

func (n *recordingNotifier) Notify(_ uuid.UUID, snap service.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snaps = append(n.snaps, snap)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snaps)
}

func (n *recordingNotifier) last() service.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snaps[len(n.snaps)-1]
}

var _ service.Notifier = (*recordingNotifier)(nil)

// ---- in-memory store -------------------------------------------------------

// memStore backs the mocks with shared state so multi-step scenarios behave
// like the real database. Tests override individual mock funcs to inject
// failures.
type memStore struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]domain.Session
	participants map[uuid.UUID][]domain.Participant
	suggestions  map[uuid.UUID][]domain.Suggestion
}

func newMemStore() *memStore {
	return &memStore{
		sessions:     make(map[uuid.UUID]domain.Session),
		participants: make(map[uuid.UUID][]domain.Participant),
		suggestions:  make(map[uuid.UUID][]domain.Suggestion),
	}
}

func (s *memStore) sessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		create: func(context.Context) (domain.Session, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess := domain.Session{ID: uuid.New(), CreatedAt: time.Now(), IsActive: true}
			s.sessions[sess.ID] = sess
			return sess, nil
		},
		getByID: func(_ context.Context, id uuid.UUID) (domain.Session, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess, ok := s.sessions[id]
			if !ok {
				return domain.Session{}, domain.ErrNotFound
			}
			return sess, nil
		},
		close: func(_ context.Context, id uuid.UUID) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess, ok := s.sessions[id]
			if !ok {
				return domain.ErrNotFound
			}
			sess.IsActive = false
			s.sessions[id] = sess
			return nil
		},
		setFingerprint: func(_ context.Context, id uuid.UUID, fp string, n int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess, ok := s.sessions[id]
			if !ok {
				return domain.ErrNotFound
			}
			sess.Fingerprint, sess.FingerprintCount = fp, n
			s.sessions[id] = sess
			return nil
		},
	}
}

func (s *memStore) participantRepo() *mockParticipantRepo {
	find := func(sessionID, id uuid.UUID) int {
		for i, p := range s.participants[sessionID] {
			if p.ID == id {
				return i
			}
		}
		return -1
	}
	return &mockParticipantRepo{
		create: func(_ context.Context, p domain.Participant) (domain.Participant, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			p.ID = uuid.New()
			p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
			s.participants[p.SessionID] = append(s.participants[p.SessionID], p)
			return p, nil
		},
		getByID: func(_ context.Context, sessionID, id uuid.UUID) (domain.Participant, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			i := find(sessionID, id)
			if i < 0 {
				return domain.Participant{}, domain.ErrNotFound
			}
			return s.participants[sessionID][i], nil
		},
		listBySession: func(_ context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return append([]domain.Participant(nil), s.participants[sessionID]...), nil
		},
		count: func(_ context.Context, sessionID uuid.UUID) (int, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return len(s.participants[sessionID]), nil
		},
		updateLocation: func(_ context.Context, sessionID, id uuid.UUID, loc *domain.Coordinate) (domain.Participant, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			i := find(sessionID, id)
			if i < 0 {
				return domain.Participant{}, domain.ErrNotFound
			}
			p := s.participants[sessionID][i]
			p.Location = loc
			s.participants[sessionID][i] = p
			return p, nil
		},
		updateActivity: func(_ context.Context, sessionID, id uuid.UUID, a *domain.Activity) (domain.Participant, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			i := find(sessionID, id)
			if i < 0 {
				return domain.Participant{}, domain.ErrNotFound
			}
			p := s.participants[sessionID][i]
			p.Activity = a
			s.participants[sessionID][i] = p
			return p, nil
		},
		delete: func(_ context.Context, sessionID, id uuid.UUID) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			i := find(sessionID, id)
			if i < 0 {
				return domain.ErrNotFound
			}
			ps := s.participants[sessionID]
			s.participants[sessionID] = append(ps[:i:i], ps[i+1:]...)
			return nil
		},
	}
}

func (s *memStore) suggestionRepo() *mockSuggestionRepo {
	return &mockSuggestionRepo{
		deleteBySession: func(_ context.Context, sessionID uuid.UUID) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			n := len(s.suggestions[sessionID])
			delete(s.suggestions, sessionID)
			return int64(n), nil
		},
		insertAll: func(_ context.Context, sessionID uuid.UUID, in []domain.Suggestion) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.suggestions[sessionID] = append(s.suggestions[sessionID], in...)
			return nil
		},
		listBySession: func(_ context.Context, sessionID uuid.UUID) ([]domain.Suggestion, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return append([]domain.Suggestion(nil), s.suggestions[sessionID]...), nil
		},
		listPaged: func(_ context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			all := s.suggestions[sessionID]
			lo := min(p.Offset(), len(all))
			hi := min(lo+p.Limit, len(all))
			return append([]domain.Suggestion(nil), all[lo:hi]...), int64(len(all)), nil
		},
	}
}

// session returns the stored session row.
func (s *memStore) session(id uuid.UUID) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// storedSuggestions returns a copy of a session's stored suggestions.
func (s *memStore) storedSuggestions(id uuid.UUID) []domain.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Suggestion(nil), s.suggestions[id]...)
}
