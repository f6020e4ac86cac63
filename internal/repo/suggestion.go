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

// SuggestionRepo defines the persistence operations for a session's ranked
// suggestions. The set is always replaced wholesale: callers delete, then
// insert, never edit rows in place.
type SuggestionRepo interface {
	// DeleteBySession removes every suggestion of a session and reports how
	// many rows went away.
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)

	// InsertAll writes suggestions in rank order; the slice index becomes the
	// stored position. All rows are sent as one batch.
	InsertAll(ctx context.Context, sessionID uuid.UUID, suggestions []domain.Suggestion) error

	// ListBySession returns every suggestion in rank order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Suggestion, error)

	// ListPaged returns one page of suggestions in rank order and the total count.
	ListPaged(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error)
}

// pgSuggestionRepo is the Postgres implementation of SuggestionRepo.
type pgSuggestionRepo struct {
	db db
}

// NewSuggestionRepo constructs a SuggestionRepo backed by the provided db connection.
func NewSuggestionRepo(db db) SuggestionRepo {
	return &pgSuggestionRepo{db: db}
}

const suggestionColumns = `
	id, name, category, location_lat, location_lng, location_address, rating,
	distance_km, average_distance_km, external_ref, photo_ref, price_level, open_now`

// DeleteBySession removes all suggestion rows for a session.
func (r *pgSuggestionRepo) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	const q = `DELETE FROM meetup_suggestions WHERE session_id = @session_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"session_id": sessionID})
	if err != nil {
		return 0, fmt.Errorf("repo.SuggestionRepo.DeleteBySession: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertAll queues one INSERT per suggestion in a pgx.Batch. The batch runs
// as a single implicit transaction, so either every row lands or none does.
func (r *pgSuggestionRepo) InsertAll(ctx context.Context, sessionID uuid.UUID, suggestions []domain.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	const q = `
		INSERT INTO meetup_suggestions
			(session_id, id, name, category, location_lat, location_lng, location_address,
			 rating, distance_km, average_distance_km, external_ref, photo_ref,
			 price_level, open_now, position)
		VALUES
			(@session_id, @id, @name, @category, @lat, @lng, @address,
			 @rating, @distance_km, @average_distance_km, @external_ref, @photo_ref,
			 @price_level, @open_now, @position)`

	batch := &pgx.Batch{}
	for i, s := range suggestions {
		batch.Queue(q, pgx.NamedArgs{
			"session_id":          sessionID,
			"id":                  s.ID,
			"name":                s.Name,
			"category":            string(s.Category),
			"lat":                 s.Location.Lat,
			"lng":                 s.Location.Lng,
			"address":             s.Location.Address,
			"rating":              s.Rating,
			"distance_km":         s.DistanceToCenter,
			"average_distance_km": s.AverageDistanceToParticipants,
			"external_ref":        nullString(s.ExternalRef),
			"photo_ref":           nullString(s.PhotoRef),
			"price_level":         s.PriceLevel, // nil becomes NULL
			"open_now":            s.IsOpenNow,
			"position":            i,
		})
	}

	br := r.db.SendBatch(ctx, batch)
	for range suggestions {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("repo.SuggestionRepo.InsertAll: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("repo.SuggestionRepo.InsertAll: close batch: %w", err)
	}
	return nil
}

// ListBySession returns all suggestions ordered by position.
func (r *pgSuggestionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Suggestion, error) {
	const q = `
		SELECT ` + suggestionColumns + `
		FROM meetup_suggestions
		WHERE session_id = @session_id
		ORDER BY position`

	out, err := r.list(ctx, q, pgx.NamedArgs{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("repo.SuggestionRepo.ListBySession: %w", err)
	}
	return out, nil
}

// ListPaged returns one page ordered by position plus the session's total.
func (r *pgSuggestionRepo) ListPaged(ctx context.Context, sessionID uuid.UUID, p domain.PaginationParams) ([]domain.Suggestion, int64, error) {
	const countQ = `SELECT COUNT(*) FROM meetup_suggestions WHERE session_id = @session_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"session_id": sessionID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.SuggestionRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + suggestionColumns + `
		FROM meetup_suggestions
		WHERE session_id = @session_id
		ORDER BY position
		LIMIT @limit OFFSET @offset`

	out, err := r.list(ctx, q, pgx.NamedArgs{
		"session_id": sessionID,
		"limit":      p.Limit,
		"offset":     p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.SuggestionRepo.ListPaged: %w", err)
	}
	return out, total, nil
}

func (r *pgSuggestionRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Suggestion, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// scanSuggestion maps a single database row into a domain.Suggestion.
func scanSuggestion(s scanner) (domain.Suggestion, error) {
	var (
		out         domain.Suggestion
		id          pgtype.UUID
		category    string
		externalRef pgtype.Text
		photoRef    pgtype.Text
		priceLevel  pgtype.Int4
		openNow     pgtype.Bool
	)

	err := s.Scan(
		&id, &out.Name, &category,
		&out.Location.Lat, &out.Location.Lng, &out.Location.Address,
		&out.Rating, &out.DistanceToCenter, &out.AverageDistanceToParticipants,
		&externalRef, &photoRef, &priceLevel, &openNow,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Suggestion{}, domain.ErrNotFound
		}
		return domain.Suggestion{}, err
	}

	out.ID = uuid.UUID(id.Bytes)
	out.Category = domain.Activity(category)
	out.ExternalRef = externalRef.String
	out.PhotoRef = photoRef.String
	if priceLevel.Valid {
		level := int(priceLevel.Int32)
		out.PriceLevel = &level
	}
	if openNow.Valid {
		open := openNow.Bool
		out.IsOpenNow = &open
	}
	return out, nil
}
