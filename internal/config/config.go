// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// NATSURL points at the NATS server used to fan session changes out to
	// other API processes. Empty keeps events in-process.
	NATSURL string

	// GooglePlacesAPIKey enables live venue search. Empty means every
	// suggestion comes from the offline generator.
	GooglePlacesAPIKey string

	// PlacesRateLimit caps outgoing Places requests per second.
	PlacesRateLimit float64

	SearchRadiusKm    float64
	DefaultMaxResults int
	MaxSuggestions    int

	// OfflineSeed seeds the offline venue generator.
	OfflineSeed int64

	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	RateLimitRPS   float64
	RateLimitBurst int

	MaxBodyBytes int64

	// OTLPEndpoint is the host:port of an OTLP gRPC collector. Empty
	// disables tracing export.
	OTLPEndpoint string

	// ShareBaseURL is the frontend URL share links point at.
	ShareBaseURL string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or any
// numeric variables that do not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		NATSURL:            os.Getenv("NATS_URL"),
		GooglePlacesAPIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ShareBaseURL:       getEnv("SHARE_BASE_URL", "http://localhost:5173"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	p := numParser{invalid: &invalid}
	cfg.PlacesRateLimit = p.float("PLACES_RATE_LIMIT", 10)
	cfg.SearchRadiusKm = p.float("SEARCH_RADIUS_KM", 3)
	cfg.DefaultMaxResults = p.int("DEFAULT_MAX_RESULTS", 7)
	cfg.MaxSuggestions = p.int("MAX_SUGGESTIONS", 50)
	cfg.OfflineSeed = p.int64("OFFLINE_SEED", 1)
	cfg.RateLimitRPS = p.float("RATE_LIMIT_RPS", 10)
	cfg.RateLimitBurst = p.int("RATE_LIMIT_BURST", 20)
	cfg.MaxBodyBytes = p.int64("MAX_BODY_BYTES", 1<<20)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables must be positive numbers: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// numParser reads optional positive numeric variables, recording the names
// of those that are set but unusable.
type numParser struct {
	invalid *[]string
}

func (p numParser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return f
}

func (p numParser) int64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return n
}

func (p numParser) int(key string, fallback int) int {
	return int(p.int64(key, int64(fallback)))
}
