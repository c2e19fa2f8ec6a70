// Package app wires configuration, storage, policy and services into the
// process-wide object graph shared by the HTTP server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/catalog"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/config"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/handlers"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/security"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/service"
)

// App holds every long-lived component
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	DB      *database.DB
	Catalog *catalog.Catalog
	Policy  *policy.Evaluator
	Tokens  *security.TokenService

	Profiles      *service.ProfileService
	Relationships *service.RelationshipService
	Onboarding    *service.OnboardingService
	Progress      *service.ProgressService
	Export        *service.ExportService
}

// Open connects to the configured database and builds the services. It does
// not run migrations.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	a, err := build(ctx, cfg, log, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, log *logger.Logger, db *database.DB) (*App, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	evaluator, err := policy.New(repository.NewIdentityStore(db),
		policy.WithLogger(log),
		policy.WithResolveRetry(cfg.ResolveMaxAttempts, cfg.ResolveInitialBackoff))
	if err != nil {
		return nil, fmt.Errorf("failed to build policy evaluator: %w", err)
	}

	tokens, err := security.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}

	var notifier service.Notifier
	if cfg.NotificationsEnabled() {
		emails, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, log)
		if err != nil {
			log.Warn("parent emails disabled", "error", err)
		} else {
			notifier = emails
		}
	}

	profileRepo := repository.NewProfileRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	profiles := service.NewProfileService(db, profileRepo, progressRepo, evaluator)
	relationships := service.NewRelationshipService(profileRepo, relRepo, evaluator)
	progress := service.NewProgressService(db, profileRepo, relRepo,
		repository.NewActivityRepository(db), progressRepo,
		repository.NewAchievementRepository(db), repository.NewAdventureRepository(db),
		cat, evaluator, notifier, log, cfg.Location())

	return &App{
		Config:        cfg,
		Log:           log,
		DB:            db,
		Catalog:       cat,
		Policy:        evaluator,
		Tokens:        tokens,
		Profiles:      profiles,
		Relationships: relationships,
		Onboarding:    service.NewOnboardingService(db, profileRepo, relRepo, progressRepo, evaluator, notifier, log),
		Progress:      progress,
		Export:        service.NewExportService(profileRepo, profiles, relationships, progress, log),
	}, nil
}

// Migrate applies pending migrations and returns the files that ran
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	applied, err := a.DB.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, name := range applied {
		a.Log.Info("migration applied", "file", name)
	}
	return applied, nil
}

// Seed writes the achievement catalog to storage
func (a *App) Seed(ctx context.Context) error {
	if err := a.Progress.SyncCatalog(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}

// Handler builds the HTTP API. The returned stop func releases the rate
// limiter's cleanup goroutine.
func (a *App) Handler() (http.Handler, func()) {
	limiter := security.NewRateLimiter(a.Config.RateLimitPerMinute, time.Minute)
	mw := handlers.NewMiddleware(a.Tokens, a.Policy, limiter, a.Log, a.Config.RequestTimeout)
	h := handlers.Routes(mw, a.DB,
		handlers.NewProfileHandler(a.Profiles, a.Log),
		handlers.NewFamilyHandler(a.Onboarding, a.Relationships, a.Progress, a.Log),
		handlers.NewActivityHandler(a.Progress, a.Log))
	return h, limiter.Close
}

// Close releases the database connection
func (a *App) Close() error {
	return a.DB.Close()
}
