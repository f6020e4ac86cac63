package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. latitude out of range, unknown activity).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInsufficientParticipants is returned when suggestions are requested but
// no participant has both a location and an activity yet.
// Handlers should map this to HTTP 409 Conflict: nothing to generate yet.
var ErrInsufficientParticipants = errors.New("insufficient participants")

// ErrSourcingUnavailable is returned by a place searcher that is absent or
// failing. The suggestion engine recovers from it by switching to the offline
// generator; it never reaches a handler.
var ErrSourcingUnavailable = errors.New("sourcing unavailable")

// ErrStoreWriteFailed wraps a failed insert or delete against the store.
// Handlers should map this to HTTP 502 Bad Gateway.
var ErrStoreWriteFailed = errors.New("store write failed")

// ErrConcurrentGeneration is returned internally when a generation run is
// requested while another one is in flight for the same session.
var ErrConcurrentGeneration = errors.New("generation already in progress")

// ErrSessionClosed is returned when a mutation targets a session that has
// been closed. Handlers should map this to HTTP 410 Gone.
var ErrSessionClosed = errors.New("session closed")
