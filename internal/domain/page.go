package domain

// Suggestion listings are paged in batches no larger than the most a
// session can ever hold, so one page can always show the whole list.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// PaginationParams selects one page of a session's stored suggestions.
// Page is 1-indexed.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds PaginationParams from optional query values.
// Missing or non-positive values fall back to page 1 and DefaultPageLimit;
// larger limits are clamped to MaxPageLimit.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the number of suggestions ranked ahead of the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
