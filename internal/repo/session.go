// Package repo contains all database access logic for the Meety API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/meety/meety/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// SessionRepo defines the persistence operations for Sessions.
// Participants and suggestions live in their own repos; the session row
// carries only lifecycle state and the generation fingerprint.
type SessionRepo interface {
	// Create inserts a new active session and returns it with the
	// DB-generated id and created_at populated.
	Create(ctx context.Context) (domain.Session, error)

	// GetByID retrieves a session row. Participants and Suggestions are left
	// empty. Returns domain.ErrNotFound if no session with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error)

	// Close marks a session inactive. Returns domain.ErrNotFound if it does not exist.
	Close(ctx context.Context, id uuid.UUID) error

	// SetFingerprint records the participant configuration the current
	// suggestions were generated from. An empty fingerprint clears it.
	SetFingerprint(ctx context.Context, id uuid.UUID, fingerprint string, participantCount int) error
}

// pgSessionRepo is the Postgres implementation of SessionRepo.
type pgSessionRepo struct {
	db db
}

// NewSessionRepo constructs a SessionRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSessionRepo(db db) SessionRepo {
	return &pgSessionRepo{db: db}
}

const sessionColumns = `id, created_at, is_active, suggestions_fingerprint, suggestions_participant_count`

// Create inserts a new session row with all defaults.
func (r *pgSessionRepo) Create(ctx context.Context) (domain.Session, error) {
	const q = `
		INSERT INTO sessions DEFAULT VALUES
		RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRow(ctx, q))
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.Create: %w", err)
	}
	return s, nil
}

// GetByID retrieves a session by primary key.
func (r *pgSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	const q = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = @id`

	s, err := scanSession(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.GetByID: %w", err)
	}
	return s, nil
}

// Close flips is_active to false. Closing twice is not an error.
func (r *pgSessionRepo) Close(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE sessions SET is_active = FALSE WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.SessionRepo.Close: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SessionRepo.Close: %w", domain.ErrNotFound)
	}
	return nil
}

// SetFingerprint overwrites the generation fingerprint and participant count.
func (r *pgSessionRepo) SetFingerprint(ctx context.Context, id uuid.UUID, fingerprint string, participantCount int) error {
	const q = `
		UPDATE sessions
		SET suggestions_fingerprint       = @fingerprint,
		    suggestions_participant_count = @count
		WHERE id = @id`

	args := pgx.NamedArgs{
		"id":          id,
		"fingerprint": nullString(fingerprint),
		"count":       participantCount,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.SessionRepo.SetFingerprint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SessionRepo.SetFingerprint: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanSession maps a single database row into a domain.Session.
func scanSession(s scanner) (domain.Session, error) {
	var (
		out         domain.Session
		id          pgtype.UUID
		fingerprint pgtype.Text
	)

	err := s.Scan(&id, &out.CreatedAt, &out.IsActive, &fingerprint, &out.FingerprintCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}

	out.ID = uuid.UUID(id.Bytes)
	out.Fingerprint = fingerprint.String
	return out, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
