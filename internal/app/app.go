// Package app assembles configuration, infrastructure and services into a runnable API.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/handler"
	"github.com/noah-isme/sciclub-api/internal/repository"
	"github.com/noah-isme/sciclub-api/internal/service"
	"github.com/noah-isme/sciclub-api/pkg/cache"
	"github.com/noah-isme/sciclub-api/pkg/config"
	"github.com/noah-isme/sciclub-api/pkg/database"
	"github.com/noah-isme/sciclub-api/pkg/jobs"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
	"github.com/noah-isme/sciclub-api/pkg/storage"
)

// App owns every long-lived resource of the API process.
type App struct {
	Router *gin.Engine

	db        *sqlx.DB
	redis     *redis.Client
	mailQueue *jobs.Queue
	closers   []func() error
	logger    *zap.Logger
}

// Build connects to Postgres and the configured backends and wires the HTTP surface.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	files, closeFiles, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, closeFiles)

	otpStore, redisClient, err := OpenOTPStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open otp store: %w", err)
	}
	if redisClient != nil {
		a.redis = redisClient
		a.closers = append(a.closers, redisClient.Close)
	}

	sender, err := NewMailSender(cfg.Mail, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configure mail: %w", err)
	}
	renderer, err := mailer.NewRenderer()
	if err != nil {
		a.Close()
		return nil, err
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	notifications := service.NewNotificationService(renderer, sender, metrics, logger.Named("notifications"))
	a.mailQueue = jobs.NewQueue("mail", notifications.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Mail.AsyncWorkers,
		MaxRetries: cfg.Mail.AsyncRetries,
		RetryDelay: cfg.Mail.RetryDelay,
		Logger:     logger,
		OnGiveUp:   notifications.GiveUp,
	})
	notifications.AttachQueue(a.mailQueue)

	applications := repository.NewApplicationRepository(db)
	advisors := repository.NewAdvisorRepository(db)
	templates := repository.NewTemplateRepository(db)
	users := repository.NewUserRepository(db)
	pageViews := repository.NewStatisticRepository(db)
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	authSvc := service.NewAuthService(users, advisors, validate, logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	applicationSvc := service.NewApplicationService(applications, files, notifications, signer, validate, logger, service.ApplicationConfig{
		AdminRecipient: cfg.Mail.AdminRecipient,
		PublicBaseURL:  cfg.PublicBaseURL,
		APIPrefix:      cfg.APIPrefix,
	})
	reviewSvc := service.NewReviewService(applications, advisors, templates, files, notifications, signer, metrics, validate, logger, service.ReviewConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		APIPrefix:     cfg.APIPrefix,
		DashboardURL:  cfg.PublicBaseURL + "/advisor",
	})
	otpSvc := service.NewOTPService(otpStore, notifications, metrics, logger)
	accountSvc := service.NewAccountService(users, otpSvc, validate, logger)
	advisorProfileSvc := service.NewAdvisorProfileService(advisors, files, validate, logger)
	contactSvc := service.NewContactService(otpSvc, notifications, validate, logger, service.ContactConfig{Recipient: cfg.Mail.ContactRecipient})
	statisticsSvc := service.NewStatisticsService(pageViews, metrics, logger)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if a.redis != nil {
		checks["redis"] = cache.Probe(a.redis)
	}

	a.Router = NewRouter(RouterDeps{
		Config:     cfg,
		Logger:     logger,
		Auth:       authSvc,
		Metrics:    metrics,
		Statistics: statisticsSvc,
		Handlers: Handlers{
			Applications:   handler.NewApplicationHandler(applicationSvc),
			Admin:          handler.NewAdminApplicationHandler(applicationSvc, reviewSvc),
			Advisor:        handler.NewAdvisorHandler(reviewSvc),
			AdvisorProfile: handler.NewAdvisorProfileHandler(advisorProfileSvc),
			Auth:           handler.NewAuthHandler(authSvc),
			Profile:        handler.NewProfileHandler(accountSvc),
			Contact:        handler.NewContactHandler(contactSvc),
			Statistics:     handler.NewStatisticsHandler(statisticsSvc),
			Metrics:        handler.NewMetricsHandler(metrics, checks),
		},
	})
	return a, nil
}

// Start launches background workers.
func (a *App) Start(ctx context.Context) {
	a.mailQueue.Start(ctx)
}

// Close stops workers and releases connections in reverse order of acquisition.
func (a *App) Close() error {
	if a.mailQueue != nil {
		a.mailQueue.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
