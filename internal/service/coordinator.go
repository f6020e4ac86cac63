package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/events"
	"github.com/meety/meety/internal/meeting"
	"github.com/meety/meety/internal/suggest"
	"github.com/meety/meety/internal/telemetry"
)

const (
	msgSaveFailed     = "Could not save suggestions. Please try again."
	msgGenerateFailed = "Could not generate suggestions. Please try again."
)

// Coordinator owns the suggestion lifecycle of one session: at most one
// generation run at a time, clearing suggestions that no longer match the
// participants, and reacting to changes made by other processes.
//
// mu guards only in-memory state. It is never held across store calls,
// bus publishes, or notifier pushes.
type Coordinator struct {
	sessionID uuid.UUID
	svc       *SessionService
	sub       events.Subscription

	mu         sync.Mutex
	generating bool
	pager      *suggest.Pager
	basis      string // fingerprint of the participants pager was built from
	hasMore    bool
	provider   string
	lastError  string
}

func newCoordinator(id uuid.UUID, svc *SessionService) *Coordinator {
	return &Coordinator{sessionID: id, svc: svc}
}

// Snapshot reads the session's persisted state and overlays the
// coordinator's in-memory flags.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	sess, err := c.svc.sessions.GetByID(ctx, c.sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if sess.Participants, err = c.svc.participants.ListBySession(ctx, c.sessionID); err != nil {
		return Snapshot{}, err
	}
	if sess.Suggestions, err = c.svc.suggestions.ListBySession(ctx, c.sessionID); err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	snap := Snapshot{
		Session:    sess,
		ShareURL:   c.svc.ShareURL(c.sessionID),
		Generating: c.generating,
		HasMore:    c.hasMore,
		Provider:   c.provider,
		LastError:  c.lastError,
	}
	c.mu.Unlock()

	snap.Stale = meeting.IsStale(sess)
	if point, err := meeting.ComputeMeetingPoint(sess.Participants); err == nil {
		snap.MeetingPoint = &point
		snap.CanGenerate = sess.IsActive
	}
	return snap, nil
}

// Generate runs the engine and replaces the stored suggestions. A call made
// while a run is in flight returns the current snapshot with Generating set.
func (c *Coordinator) Generate(ctx context.Context, maxResults int) (Snapshot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "service.Coordinator.Generate")
	defer span.End()

	if err := c.begin(); err != nil {
		return c.busy(ctx, err)
	}
	err := c.generate(ctx, maxResults)
	c.end()
	if err != nil {
		c.svc.notify(ctx, c)
		return Snapshot{}, err
	}
	return c.settle(ctx)
}

// LoadMore reveals the next batch of suggestions for the current generation.
// Without a live pager (for example after a restart) it starts a fresh one
// sized to what is already stored.
func (c *Coordinator) LoadMore(ctx context.Context) (Snapshot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "service.Coordinator.LoadMore")
	defer span.End()

	if err := c.begin(); err != nil {
		return c.busy(ctx, err)
	}
	err := c.loadMore(ctx)
	c.end()
	if err != nil {
		c.svc.notify(ctx, c)
		return Snapshot{}, err
	}
	return c.settle(ctx)
}

// Reconcile clears suggestions that no longer match the participants and
// pushes the resulting snapshot. Failures are logged; they never fail the
// mutation that triggered the check.
func (c *Coordinator) Reconcile(ctx context.Context) {
	if _, err := c.clearIfStale(ctx); err != nil {
		c.svc.logger.WarnContext(ctx, "clear stale suggestions failed",
			"session_id", c.sessionID, "error", err)
	}
	c.svc.notify(ctx, c)
}

func (c *Coordinator) generate(ctx context.Context, maxResults int) error {
	ps, err := c.svc.participants.ListBySession(ctx, c.sessionID)
	if err != nil {
		return err
	}

	res, err := c.svc.engine.Generate(ctx, ps, maxResults)
	if err != nil {
		if !errors.Is(err, domain.ErrInsufficientParticipants) {
			c.setError(msgGenerateFailed)
		}
		return err
	}

	pager := suggest.NewPager(c.svc.engine, res)
	if err := c.persist(ctx, res.Suggestions, ps, res.Provider); err != nil {
		return err
	}
	c.setResult(pager, ps)
	return nil
}

func (c *Coordinator) loadMore(ctx context.Context) error {
	ps, err := c.svc.participants.ListBySession(ctx, c.sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	pager := c.pager
	if c.basis != meeting.Fingerprint(ps) {
		// Built for other participants; its venues are ranked around an old
		// meeting point.
		pager = nil
	}
	c.mu.Unlock()

	if pager == nil {
		stored, err := c.svc.suggestions.ListBySession(ctx, c.sessionID)
		if err != nil {
			return err
		}
		res, err := c.svc.engine.Generate(ctx, ps, len(stored))
		if err != nil {
			if !errors.Is(err, domain.ErrInsufficientParticipants) {
				c.setError(msgGenerateFailed)
			}
			return err
		}
		pager = suggest.NewPager(c.svc.engine, res)
		if len(stored) == 0 {
			// Nothing was showing, so the first batch is the new content.
			if err := c.persist(ctx, pager.Visible(), ps, pager.Provider()); err != nil {
				return err
			}
			c.setResult(pager, ps)
			return nil
		}
	}

	visible, err := pager.More(ctx, ps)
	if err != nil {
		c.setError(msgGenerateFailed)
		return err
	}
	if err := c.persist(ctx, visible, ps, pager.Provider()); err != nil {
		return err
	}
	c.setResult(pager, ps)
	return nil
}

// persist replaces the stored suggestions and records the fingerprint they
// were generated from. A failed delete only leaves rows the insert would
// have replaced anyway, so it is logged and skipped. A failed insert or
// fingerprint write is fatal for the run and leaves the session with no
// suggestions and an error message.
func (c *Coordinator) persist(ctx context.Context, list []domain.Suggestion, ps []domain.Participant, provider string) error {
	if _, err := c.svc.suggestions.DeleteBySession(ctx, c.sessionID); err != nil {
		c.svc.logger.WarnContext(ctx, "clear previous suggestions failed",
			"session_id", c.sessionID, "error", err)
	}

	if err := c.svc.suggestions.InsertAll(ctx, c.sessionID, list); err != nil {
		c.abandon(ctx)
		return fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err)
	}
	if err := c.svc.sessions.SetFingerprint(ctx, c.sessionID, meeting.Fingerprint(ps), len(ps)); err != nil {
		c.abandon(ctx)
		return fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err)
	}

	c.svc.logger.InfoContext(ctx, "suggestions stored",
		"session_id", c.sessionID, "count", len(list), "provider", provider)
	c.svc.publish(ctx, c.sessionID, domain.TableSuggestions, domain.EventInsert,
		map[string]any{"count": len(list), "provider": provider}, nil)
	return nil
}

// abandon records a failed write and makes a best effort to leave the
// session without suggestions rather than with a partial list.
func (c *Coordinator) abandon(ctx context.Context) {
	c.mu.Lock()
	c.pager = nil
	c.basis = ""
	c.hasMore = false
	c.lastError = msgSaveFailed
	c.mu.Unlock()

	if _, err := c.svc.suggestions.DeleteBySession(ctx, c.sessionID); err != nil {
		c.svc.logger.WarnContext(ctx, "remove partial suggestions failed",
			"session_id", c.sessionID, "error", err)
	}
	if err := c.svc.sessions.SetFingerprint(ctx, c.sessionID, "", 0); err != nil {
		c.svc.logger.WarnContext(ctx, "reset fingerprint failed",
			"session_id", c.sessionID, "error", err)
	}
}

// clearIfStale deletes the session's suggestions when the participants they
// were generated for have changed. It reports whether anything was cleared.
func (c *Coordinator) clearIfStale(ctx context.Context) (bool, error) {
	sess, err := c.svc.sessions.GetByID(ctx, c.sessionID)
	if err != nil {
		return false, err
	}
	if sess.Participants, err = c.svc.participants.ListBySession(ctx, c.sessionID); err != nil {
		return false, err
	}
	if !meeting.IsStale(sess) {
		return false, nil
	}

	// The pager goes even if the store writes below fail.
	c.mu.Lock()
	c.pager = nil
	c.basis = ""
	c.hasMore = false
	c.provider = ""
	c.mu.Unlock()

	if _, err := c.svc.suggestions.DeleteBySession(ctx, c.sessionID); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err)
	}
	if err := c.svc.sessions.SetFingerprint(ctx, c.sessionID, "", 0); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err)
	}

	telemetry.StaleInvalidations.Inc()
	c.svc.logger.InfoContext(ctx, "participants changed, suggestions cleared",
		"session_id", c.sessionID, "participants", len(sess.Participants))
	c.svc.publish(ctx, c.sessionID, domain.TableSuggestions, domain.EventDelete, nil, nil)
	return true, nil
}

// handleEvent reacts to changes published by other processes. Events this
// process published are skipped before any lock is taken.
func (c *Coordinator) handleEvent(ctx context.Context, ev domain.ChangeEvent) {
	if ev.Origin == c.svc.origin {
		return
	}

	switch ev.Table {
	case domain.TableSessions:
		sess, err := c.svc.sessions.GetByID(ctx, c.sessionID)
		if err != nil {
			c.svc.logger.WarnContext(ctx, "refetch session after remote change failed",
				"session_id", c.sessionID, "error", err)
			return
		}
		if !sess.IsActive {
			c.svc.release(c.sessionID)
			c.svc.notify(ctx, c)
			return
		}
	case domain.TableSuggestions:
		// Another process replaced the list; our pager no longer describes it.
		c.mu.Lock()
		c.pager = nil
		c.basis = ""
		c.hasMore = false
		c.provider = ""
		c.lastError = ""
		c.mu.Unlock()
		c.svc.notify(ctx, c)
		return
	}

	c.Reconcile(ctx)
}

// begin claims the generating flag. It returns ErrConcurrentGeneration if a
// run is in flight.
func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generating {
		return domain.ErrConcurrentGeneration
	}
	c.generating = true
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.generating = false
	c.mu.Unlock()
}

// busy answers a request that arrived while a run was in flight.
func (c *Coordinator) busy(ctx context.Context, reason error) (Snapshot, error) {
	telemetry.ConcurrentGenerationRejected.Inc()
	c.svc.logger.DebugContext(ctx, "request ignored", "session_id", c.sessionID, "reason", reason)

	snap, err := c.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Generating = true
	return snap, nil
}

// settle runs the staleness check a finished run needs (participants may
// have changed while it was sourcing), pushes, and returns the snapshot.
func (c *Coordinator) settle(ctx context.Context) (Snapshot, error) {
	c.Reconcile(ctx)
	return c.Snapshot(ctx)
}

func (c *Coordinator) setResult(p *suggest.Pager, ps []domain.Participant) {
	c.mu.Lock()
	c.pager = p
	c.basis = meeting.Fingerprint(ps)
	c.hasMore = p.HasMore()
	c.provider = p.Provider()
	c.lastError = ""
	c.mu.Unlock()
}

func (c *Coordinator) setError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}
