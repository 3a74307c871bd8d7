package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/it-helpdesk/internal/api/http"
	"github.com/spec-kit/it-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/it-helpdesk/internal/app"
	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/config"
	"github.com/spec-kit/it-helpdesk/internal/observability"
	"github.com/spec-kit/it-helpdesk/internal/persistence"
	"github.com/spec-kit/it-helpdesk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise backends", zap.Error(err))
	}
	defer container.Close()

	if cfg.Postgres.RunMigrations && container.Postgres.Enabled() {
		if err := persistence.RunMigrations(ctx, container.Postgres.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	if cfg.Webhook.Secret == "" {
		logger.Warn("WEBHOOK_SECRET not set; automation endpoints accept unauthenticated calls")
	}

	server := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(server, logger, container.Metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, container.Postgres, container.Redis),
		Auth:           handlers.NewAuthHandler(container.Auth),
		Profile:        handlers.NewProfileHandler(container.Profiles),
		Incidents:      handlers.NewIncidentsHandler(container.Incidents, container.Comments),
		StaffIncidents: handlers.NewStaffIncidentsHandler(container.Incidents, container.Acks, container.Dashboard),
		Automation: handlers.NewAutomationHandler(handlers.AutomationDependencies{
			Incidents:  container.Incidents,
			Acks:       container.Acks,
			Quarantine: container.Quarantine,
			Classifier: container.Classifier,
			Logger:     logger,
		}),
		AuthMiddleware: auth.NewAuthMiddleware(container.Tokens, container.Sessions, container.Repos.Users),
		WebhookGuard:   auth.WebhookGuard(cfg.Webhook.Secret, cfg.Webhook.AllowedIPs, logger),
		Metrics:        container.Metrics,
	})

	sweeper := worker.NewSessionSweeper(container.Sessions, cfg.Auth.SweepInterval(), logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return server.Listen(cfg.App.Addr())
	})
	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return server.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
	}
}
