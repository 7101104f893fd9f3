// Package main is the entry point for the JetSetGo API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/lumia-Qcode/JetSetGo/internal/cache"
	"github.com/lumia-Qcode/JetSetGo/internal/config"
	"github.com/lumia-Qcode/JetSetGo/internal/handler"
	"github.com/lumia-Qcode/JetSetGo/internal/mailer"
	"github.com/lumia-Qcode/JetSetGo/internal/middleware"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
	"github.com/lumia-Qcode/JetSetGo/internal/service"
	"github.com/lumia-Qcode/JetSetGo/migrations"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	// A .env file in the working directory is optional.
	cfg, err := config.Load(".env")
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

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
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

	// --- Collaborators ----------------------------------------------------
	mail := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}, logger)

	// The ranking cache is optional; without Redis every read hits Postgres.
	var popular service.PopularCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		popular = cache.NewPopularCache(client, cfg.PopularCacheTTL)
		slog.Info("popular destinations cache enabled", "ttl", cfg.PopularCacheTTL.String())
	}

	policy := service.NarrowToParticipants
	if cfg.SharePolicy == "strict" {
		policy = service.StrictSharePolicy
	}

	// --- Services ---------------------------------------------------------
	store := repo.NewStore(pool)
	identity := service.NewIdentityService(store, logger, cfg.JWTSecret, cfg.TokenTTL)
	srv := handler.NewServer(handler.Services{
		Identity:      identity,
		Reset:         service.NewResetService(store, mail, logger, cfg.ResetTokenTTL, cfg.AppBaseURL),
		Trips:         service.NewTripService(store, mail, popular, logger, cfg.AppBaseURL),
		Itinerary:     service.NewItineraryService(store, logger),
		Budgets:       service.NewBudgetService(store, policy, logger),
		Favorites:     service.NewFavoriteService(store, popular, logger),
		Notifications: service.NewNotificationService(store, logger),
		Reviews:       service.NewReviewService(store, logger),
		Export:        service.NewExportService(store),
		Tasks:         service.NewTaskService(store, logger),
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations. goose drives database/sql, so the
// pool is wrapped rather than opening a second connection pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration.String())
	}
	return nil
}
