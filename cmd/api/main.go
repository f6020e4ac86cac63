// Package main is the entry point for the Meety API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"golang.org/x/time/rate"

	"github.com/meety/meety/internal/config"
	"github.com/meety/meety/internal/events"
	"github.com/meety/meety/internal/handler"
	"github.com/meety/meety/internal/middleware"
	"github.com/meety/meety/internal/places"
	"github.com/meety/meety/internal/realtime"
	"github.com/meety/meety/internal/repo"
	"github.com/meety/meety/internal/service"
	"github.com/meety/meety/internal/suggest"
	"github.com/meety/meety/internal/telemetry"
	"github.com/meety/meety/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Tracing ----------------------------------------------------------
	shutdownTracer, err := telemetry.InitTracer(context.Background(), "meety-api", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := migrate(context.Background(), pool); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// --- Events -----------------------------------------------------------
	// With NATS configured, every API process sees every session change.
	// Without it, a single process keeps events in memory.
	var bus events.Bus
	if cfg.NATSURL != "" {
		nb, err := events.NewNATSBus(cfg.NATSURL, logger)
		if err != nil {
			slog.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		bus = nb
		slog.Info("nats event bus connected", "url", cfg.NATSURL)
	} else {
		bus = events.NewMemoryBus()
		slog.Info("using in-process event bus")
	}

	// --- Suggestion engine ------------------------------------------------
	live, err := places.NewGoogleSearcher(cfg.GooglePlacesAPIKey, cfg.PlacesRateLimit)
	if err != nil {
		slog.Error("failed to create places client", "error", err)
		os.Exit(1)
	}
	if !live.Available() {
		slog.Warn("GOOGLE_PLACES_API_KEY not set, suggestions come from the offline generator")
	}
	engine := suggest.NewEngine(live, places.NewOfflineSearcher(cfg.OfflineSeed), suggest.Config{
		RadiusKm:          cfg.SearchRadiusKm,
		DefaultMaxResults: cfg.DefaultMaxResults,
		MaxSuggestions:    cfg.MaxSuggestions,
	}, logger)

	// --- Services ---------------------------------------------------------
	hub := realtime.NewHub(logger)
	sessions := service.NewSessionService(service.Deps{
		Sessions:     repo.NewSessionRepo(pool),
		Participants: repo.NewParticipantRepo(pool),
		Suggestions:  repo.NewSuggestionRepo(pool),
		Engine:       engine,
		Bus:          bus,
		Notifier:     handler.NewSnapshotNotifier(hub),
		Logger:       logger,
		Origin:       uuid.NewString(),
		ShareBaseURL: cfg.ShareBaseURL,
	})
	srvHandler := handler.NewServer(sessions, hub, realtime.NewUpgrader(cfg.CORSOrigins), logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Metrics →
	// CORS → Recoverer. RealIP runs before the rate limiter so limits apply
	// to the client rather than the proxy.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetrics())
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(chimiddleware.Recoverer)

	r.Mount("/", srvHandler.Routes(handler.RouteOptions{
		RateLimiter:  middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		MaxBodyBytes: cfg.MaxBodyBytes,
	}))

	// --- HTTP Server ------------------------------------------------------
	// Generation may wait on the Places API, so writes get more headroom
	// than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	sessions.Shutdown()
	hub.Close()
	if err := bus.Close(); err != nil {
		slog.Error("event bus close error", "error", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		slog.Error("tracer shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// migrate applies pending migrations from the embedded FS. goose needs a
// database/sql handle, so one is borrowed from the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}
