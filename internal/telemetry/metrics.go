// Package telemetry owns the process-wide Prometheus collectors and the
// OpenTelemetry tracer provider.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlacesRequests counts candidate searches by provider (live|offline)
	// and outcome (ok|error).
	PlacesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meety_places_requests_total",
			Help: "Candidate searches issued to a place provider",
		},
		[]string{"provider", "outcome"},
	)

	// FallbackSwitches counts generation runs that abandoned the live
	// provider mid-run and restarted on the offline generator.
	FallbackSwitches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meety_suggest_fallback_total",
			Help: "Generation runs that switched to the offline generator after a live failure",
		},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meety_suggest_generation_duration_seconds",
			Help:    "Duration of a suggestion generation run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	SuggestionsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meety_suggestions_generated_total",
			Help: "Suggestions produced by the engine",
		},
	)

	StaleInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meety_suggestions_invalidated_total",
			Help: "Times a session's suggestions were cleared because the participant configuration changed",
		},
	)

	ConcurrentGenerationRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meety_generation_rejected_total",
			Help: "Generation requests ignored because a run was already in flight",
		},
	)

	// BusEvents counts change events by direction (published|received).
	BusEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meety_bus_events_total",
			Help: "Session change events seen on the event bus",
		},
		[]string{"direction"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meety_websocket_clients",
			Help: "Connected websocket clients across all sessions",
		},
	)
)
