// Package suggest turns a participant list into a ranked list of places to
// meet. Engine.Generate runs one full sourcing pass; Pager layers "load
// more" on top of it.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/geo"
	"github.com/meety/meety/internal/meeting"
	"github.com/meety/meety/internal/places"
	"github.com/meety/meety/internal/telemetry"
)

// Provider labels which searcher produced a result.
const (
	ProviderLive    = "live"
	ProviderOffline = "offline"
)

const (
	// MinRating drops candidates the provider rated below it. Unrated
	// candidates are kept.
	MinRating = 3.0

	// maxRankedCategories bounds how many of the group's own activities are
	// searched in one run.
	maxRankedCategories = 4
)

// Config holds the engine's tunables.
type Config struct {
	RadiusKm          float64
	DefaultMaxResults int
	MaxSuggestions    int
}

// Result is the output of one generation run.
//
// All is every unique candidate in rank order; Suggestions is All truncated
// to the requested size. Pager reveals the rest of All before sourcing again.
type Result struct {
	MeetingPoint domain.Coordinate
	Suggestions  []domain.Suggestion
	All          []domain.Suggestion
	Requested    int
	Provider     string
}

// Engine runs the sourcing pipeline. Live is optional; the fallback
// searcher must always be present.
type Engine struct {
	live     places.Searcher
	fallback places.Searcher
	cfg      Config
	logger   *slog.Logger
}

// NewEngine constructs an Engine. live may be nil.
func NewEngine(live, fallback places.Searcher, cfg Config, logger *slog.Logger) *Engine {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = places.MaxRadiusKm
	}
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = 7
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 50
	}
	return &Engine{live: live, fallback: fallback, cfg: cfg, logger: logger}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// categoryQuota is one search in a run's plan.
type categoryQuota struct {
	category domain.Activity
	limit    int
}

// plan picks the searches for a run: the group's top activities at the base
// quota, plus restaurants at twice the quota and coffee at the base quota
// when the group did not ask for them.
func plan(ranked []domain.Activity, maxResults int) []categoryQuota {
	quota := int(math.Ceil(float64(maxResults) / float64(max(len(ranked)+2, 4))))

	top := ranked
	if len(top) > maxRankedCategories {
		top = top[:maxRankedCategories]
	}

	out := make([]categoryQuota, 0, len(top)+2)
	for _, a := range top {
		out = append(out, categoryQuota{category: a, limit: quota})
	}
	if !slices.Contains(ranked, domain.ActivityRestaurant) {
		out = append(out, categoryQuota{category: domain.ActivityRestaurant, limit: quota * 2})
	}
	if !slices.Contains(ranked, domain.ActivityCoffee) {
		out = append(out, categoryQuota{category: domain.ActivityCoffee, limit: quota})
	}
	return out
}

// Generate produces up to maxResults ranked suggestions for participants.
// maxResults <= 0 uses the configured default.
//
// The live searcher is used when available. If any live call fails, the run
// is discarded and repeated on the fallback searcher, so a result never mixes
// the two. Returns ErrInsufficientParticipants when nobody is ready.
func (e *Engine) Generate(ctx context.Context, participants []domain.Participant, maxResults int) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "suggest.Engine.Generate")
	defer span.End()

	if maxResults <= 0 {
		maxResults = e.cfg.DefaultMaxResults
	}
	maxResults = min(maxResults, e.cfg.MaxSuggestions)

	center, err := meeting.ComputeMeetingPoint(participants)
	if err != nil {
		return Result{}, fmt.Errorf("suggest.Engine.Generate: %w", err)
	}
	searches := plan(meeting.RankedActivities(participants), maxResults)

	provider, searcher := ProviderOffline, e.fallback
	if places.IsAvailable(e.live) {
		provider, searcher = ProviderLive, e.live
	}

	start := time.Now()
	all, err := e.run(ctx, searcher, provider, center, participants, searches)
	if err != nil && provider == ProviderLive {
		e.logger.WarnContext(ctx, "live place search failed, switching to offline generator", "error", err)
		telemetry.FallbackSwitches.Inc()
		span.AddEvent("fallback")

		provider = ProviderOffline
		all, err = e.run(ctx, e.fallback, provider, center, participants, searches)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("suggest.Engine.Generate: %w", err)
	}
	telemetry.GenerationDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	shown := all
	if len(shown) > maxResults {
		shown = shown[:maxResults]
	}
	telemetry.SuggestionsGenerated.Add(float64(len(shown)))

	span.SetAttributes(
		attribute.String("meety.provider", provider),
		attribute.Int("meety.max_results", maxResults),
		attribute.Int("meety.candidates", len(all)),
	)

	return Result{
		MeetingPoint: center,
		Suggestions:  shown,
		All:          all,
		Requested:    maxResults,
		Provider:     provider,
	}, nil
}

// run executes every search in the plan against one searcher and returns the
// deduplicated, ranked candidates. The first search error aborts the run.
func (e *Engine) run(
	ctx context.Context,
	searcher places.Searcher,
	provider string,
	center domain.Coordinate,
	participants []domain.Participant,
	searches []categoryQuota,
) ([]domain.Suggestion, error) {
	var out []domain.Suggestion
	for _, s := range searches {
		raw, err := searcher.Search(ctx, places.Query{
			Center:     center,
			Category:   s.category,
			RadiusKm:   e.cfg.RadiusKm,
			MaxResults: s.limit,
		})
		if err != nil {
			telemetry.PlacesRequests.WithLabelValues(provider, "error").Inc()
			return nil, fmt.Errorf("search %s: %w", s.category, err)
		}
		telemetry.PlacesRequests.WithLabelValues(provider, "ok").Inc()

		for _, c := range raw {
			if c.Rating != nil && *c.Rating < MinRating {
				continue
			}
			out = append(out, toSuggestion(c, s.category, center, participants))
		}
	}

	out = Dedupe(out)
	Rank(out)
	return out, nil
}

func toSuggestion(c places.RawCandidate, category domain.Activity, center domain.Coordinate, participants []domain.Participant) domain.Suggestion {
	s := domain.Suggestion{
		Name:                          c.Name,
		Category:                      category,
		Location:                      c.Location,
		DistanceToCenter:              geo.Distance(center, c.Location),
		AverageDistanceToParticipants: meeting.AverageDistance(c.Location, participants),
		ExternalRef:                   c.ExternalRef,
		PhotoRef:                      c.PhotoRef,
		PriceLevel:                    c.PriceLevel,
		IsOpenNow:                     c.IsOpenNow,
	}
	if c.Rating != nil {
		s.Rating = *c.Rating
	}
	s.ID = SuggestionID(IdentityKey(s))
	return s
}
