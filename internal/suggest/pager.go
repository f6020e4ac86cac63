package suggest

import (
	"context"
	"fmt"

	"github.com/meety/meety/internal/domain"
)

// Pager tracks the suggestions shown for one generation and reveals more of
// them on request. It is not safe for concurrent use; the owner serializes
// calls.
type Pager struct {
	engine    *Engine
	all       []domain.Suggestion
	known     map[string]struct{}
	shown     int
	batch     int
	provider  string
	exhausted bool
}

// NewPager starts paging from a Generate result. Each More call reveals up
// to first.Requested further suggestions.
func NewPager(e *Engine, first Result) *Pager {
	p := &Pager{
		engine:   e,
		all:      first.All,
		known:    make(map[string]struct{}, len(first.All)),
		shown:    len(first.Suggestions),
		batch:    first.Requested,
		provider: first.Provider,
	}
	for _, s := range first.All {
		p.known[IdentityKey(s)] = struct{}{}
	}
	p.exhausted = len(first.All) < first.Requested || len(p.all) >= e.cfg.MaxSuggestions
	return p
}

// Visible returns the suggestions revealed so far, in rank order.
func (p *Pager) Visible() []domain.Suggestion {
	return p.all[:p.shown]
}

// Provider names the provider every suggestion in the pager came from.
func (p *Pager) Provider() string {
	return p.provider
}

// HasMore reports whether More could return anything new.
func (p *Pager) HasMore() bool {
	return p.shown < len(p.all) || !p.exhausted
}

// More reveals the next batch and returns the full visible list.
//
// Already-computed suggestions are revealed first. Only once those run out
// is a new, larger sourcing round issued; its results are deduplicated
// against everything seen so far and appended. A round that yields fewer new
// suggestions than a batch marks the pager exhausted. A round served by a
// different provider than the first one is discarded and also exhausts the
// pager, so one list never mixes live and offline venues.
func (p *Pager) More(ctx context.Context, participants []domain.Participant) ([]domain.Suggestion, error) {
	if p.shown < len(p.all) {
		p.shown = min(p.shown+p.batch, len(p.all))
		return p.Visible(), nil
	}
	if p.exhausted {
		return p.Visible(), nil
	}

	res, err := p.engine.Generate(ctx, participants, len(p.all)+p.batch)
	if err != nil {
		return nil, fmt.Errorf("suggest.Pager.More: %w", err)
	}
	if res.Provider != p.provider {
		p.exhausted = true
		return p.Visible(), nil
	}

	var fresh []domain.Suggestion
	for _, s := range res.All {
		k := IdentityKey(s)
		if _, seen := p.known[k]; seen {
			continue
		}
		p.known[k] = struct{}{}
		fresh = append(fresh, s)
	}
	if len(fresh) < p.batch {
		p.exhausted = true
	}

	p.all = append(p.all, fresh...)
	if limit := p.engine.cfg.MaxSuggestions; len(p.all) >= limit {
		p.all = p.all[:limit]
		p.exhausted = true
	}
	p.shown = min(p.shown+p.batch, len(p.all))
	return p.Visible(), nil
}
