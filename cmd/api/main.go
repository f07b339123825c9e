package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/launchpath/backend/internal/auth"
	"github.com/launchpath/backend/internal/config"
	"github.com/launchpath/backend/internal/notify"
	"github.com/launchpath/backend/internal/repository"
	"github.com/launchpath/backend/internal/router"
	"github.com/launchpath/backend/internal/services"
	"github.com/launchpath/backend/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("Schema migrations failed", "error", err)
		os.Exit(1)
	}

	// River migrations (job queue tables)
	riverMigrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := riverMigrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Migrations applied")

	// Notification worker
	var poster notify.WebhookPoster
	if cfg.NotifyWebhookURL != "" {
		poster = notify.NewHTTPPoster(cfg.NotifyWebhookURL)
	}
	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewEventWorker(poster, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}
	notifier := notify.NewNotifier(func(ctx context.Context, args notify.EventArgs) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}, logger)

	// Repositories
	accountRepo := repository.NewAccountRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	opportunityRepo := repository.NewOpportunityRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)
	unlockRepo := repository.NewUnlockRepo(pool)
	applicationRepo := repository.NewApplicationRepo(pool)

	// Services
	ledger := services.NewLedger(accountRepo, creditRepo)
	tierPolicy := services.NewTierPolicy(accountRepo)
	gate := services.NewAccessGate(pool, opportunityRepo, unlockRepo, accountRepo, ledger)
	selector := services.NewPicksSelector(services.NewScorer())

	// Auth boundary
	authSvc := auth.NewService(pool, accountRepo, ledger, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/", router.New(authHandler))
	RegisterV1Routes(mux, v1Deps{
		AuthSvc:       authSvc,
		Accounts:      accountRepo,
		Profiles:      profileRepo,
		Opportunities: opportunityRepo,
		Credits:       creditRepo,
		Unlocks:       unlockRepo,
		Applications:  applicationRepo,
		Tier:          tierPolicy,
		Gate:          gate,
		Selector:      selector,
		Notifier:      notifier,
		Logger:        logger,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	addr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}

// runMigrations applies the embedded SQL migrations using the pgx/v5 driver.
func runMigrations(databaseURL string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	url := strings.Replace(databaseURL, "postgres://", "pgx5://", 1)
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
