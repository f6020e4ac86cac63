package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/meety/meety/internal/domain"
)

// ParticipantRepo defines the persistence operations for session participants.
// Every method is scoped by session ID so a participant can never be read or
// changed through another session.
type ParticipantRepo interface {
	// Create inserts a participant and returns the persisted record.
	Create(ctx context.Context, p domain.Participant) (domain.Participant, error)

	// GetByID returns one participant. Returns domain.ErrNotFound if the
	// participant does not exist in that session.
	GetByID(ctx context.Context, sessionID, id uuid.UUID) (domain.Participant, error)

	// ListBySession returns a session's participants in join order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error)

	// Count returns the number of participants currently in the session.
	Count(ctx context.Context, sessionID uuid.UUID) (int, error)

	// UpdateLocation sets or clears (nil) a participant's location.
	UpdateLocation(ctx context.Context, sessionID, id uuid.UUID, loc *domain.Coordinate) (domain.Participant, error)

	// UpdateActivity sets or clears (nil) a participant's activity.
	UpdateActivity(ctx context.Context, sessionID, id uuid.UUID, a *domain.Activity) (domain.Participant, error)

	// Delete removes a participant. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, sessionID, id uuid.UUID) error
}

// pgParticipantRepo is the Postgres implementation of ParticipantRepo.
type pgParticipantRepo struct {
	db db
}

// NewParticipantRepo constructs a ParticipantRepo backed by the provided db connection.
func NewParticipantRepo(db db) ParticipantRepo {
	return &pgParticipantRepo{db: db}
}

const participantColumns = `
	id, session_id, name, location_lat, location_lng, location_address,
	activity, color, created_at, updated_at`

// Create inserts a new participant row and returns the full persisted record.
func (r *pgParticipantRepo) Create(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	const q = `
		INSERT INTO session_participants
			(session_id, name, location_lat, location_lng, location_address, activity, color)
		VALUES
			(@session_id, @name, @lat, @lng, @address, @activity, @color)
		RETURNING ` + participantColumns

	args := pgx.NamedArgs{
		"session_id": p.SessionID,
		"name":       p.Name,
		"color":      p.Color,
		"activity":   activityArg(p.Activity),
	}
	setLocationArgs(args, p.Location)

	got, err := scanParticipant(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("repo.ParticipantRepo.Create: %w", err)
	}
	return got, nil
}

// GetByID retrieves a participant by session and primary key.
func (r *pgParticipantRepo) GetByID(ctx context.Context, sessionID, id uuid.UUID) (domain.Participant, error) {
	const q = `
		SELECT ` + participantColumns + `
		FROM session_participants
		WHERE session_id = @session_id AND id = @id`

	got, err := scanParticipant(r.db.QueryRow(ctx, q, pgx.NamedArgs{"session_id": sessionID, "id": id}))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("repo.ParticipantRepo.GetByID: %w", err)
	}
	return got, nil
}

// ListBySession returns participants ordered by created_at, then id for a
// stable order among rows inserted in the same instant.
func (r *pgParticipantRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
	const q = `
		SELECT ` + participantColumns + `
		FROM session_participants
		WHERE session_id = @session_id
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ParticipantRepo.ListBySession: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListBySession: rows: %w", err)
	}
	return out, nil
}

// Count returns the number of participants in a session.
func (r *pgParticipantRepo) Count(ctx context.Context, sessionID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM session_participants WHERE session_id = @session_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"session_id": sessionID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ParticipantRepo.Count: %w", err)
	}
	return n, nil
}

// UpdateLocation overwrites the location columns and bumps updated_at.
func (r *pgParticipantRepo) UpdateLocation(ctx context.Context, sessionID, id uuid.UUID, loc *domain.Coordinate) (domain.Participant, error) {
	const q = `
		UPDATE session_participants
		SET location_lat     = @lat,
		    location_lng     = @lng,
		    location_address = @address,
		    updated_at       = now()
		WHERE session_id = @session_id AND id = @id
		RETURNING ` + participantColumns

	args := pgx.NamedArgs{"session_id": sessionID, "id": id}
	setLocationArgs(args, loc)

	got, err := scanParticipant(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("repo.ParticipantRepo.UpdateLocation: %w", err)
	}
	return got, nil
}

// UpdateActivity overwrites the activity column and bumps updated_at.
func (r *pgParticipantRepo) UpdateActivity(ctx context.Context, sessionID, id uuid.UUID, a *domain.Activity) (domain.Participant, error) {
	const q = `
		UPDATE session_participants
		SET activity   = @activity,
		    updated_at = now()
		WHERE session_id = @session_id AND id = @id
		RETURNING ` + participantColumns

	args := pgx.NamedArgs{"session_id": sessionID, "id": id, "activity": activityArg(a)}

	got, err := scanParticipant(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("repo.ParticipantRepo.UpdateActivity: %w", err)
	}
	return got, nil
}

// Delete removes a participant row.
func (r *pgParticipantRepo) Delete(ctx context.Context, sessionID, id uuid.UUID) error {
	const q = `DELETE FROM session_participants WHERE session_id = @session_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"session_id": sessionID, "id": id})
	if err != nil {
		return fmt.Errorf("repo.ParticipantRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ParticipantRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// setLocationArgs writes lat/lng/address args; nil loc becomes three NULLs.
func setLocationArgs(args pgx.NamedArgs, loc *domain.Coordinate) {
	if loc == nil {
		args["lat"], args["lng"], args["address"] = nil, nil, nil
		return
	}
	args["lat"], args["lng"], args["address"] = loc.Lat, loc.Lng, loc.Address
}

func activityArg(a *domain.Activity) any {
	if a == nil {
		return nil
	}
	return string(*a)
}

// scanParticipant maps a single database row into a domain.Participant,
// turning the nullable location and activity columns into nil pointers.
func scanParticipant(s scanner) (domain.Participant, error) {
	var (
		p         domain.Participant
		id        pgtype.UUID
		sessionID pgtype.UUID
		lat, lng  pgtype.Float8
		address   pgtype.Text
		activity  pgtype.Text
	)

	err := s.Scan(&id, &sessionID, &p.Name, &lat, &lng, &address, &activity, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, err
	}

	p.ID = uuid.UUID(id.Bytes)
	p.SessionID = uuid.UUID(sessionID.Bytes)
	if lat.Valid && lng.Valid {
		p.Location = &domain.Coordinate{Lat: lat.Float64, Lng: lng.Float64, Address: address.String}
	}
	if activity.Valid {
		a := domain.Activity(activity.String)
		p.Activity = &a
	}
	return p, nil
}
