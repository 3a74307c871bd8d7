package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/classifier"
	"github.com/spec-kit/it-helpdesk/internal/config"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/observability"
	"github.com/spec-kit/it-helpdesk/internal/persistence"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	"github.com/spec-kit/it-helpdesk/internal/repository/memory"
	"github.com/spec-kit/it-helpdesk/internal/service"
)

// Repositories groups the storage ports used by the services.
type Repositories struct {
	Users       repository.UserRepository
	Profiles    repository.ProfileRepository
	Incidents   repository.IncidentRepository
	Comments    repository.CommentRepository
	Attachments repository.AttachmentRepository
	History     repository.IncidentHistoryRepository
}

// PostgresRepositories builds pgx-backed repositories on pool.
func PostgresRepositories(pg *persistence.Postgres) Repositories {
	pool := pg.Pool
	return Repositories{
		Users:       repository.NewUserRepository(pool),
		Profiles:    repository.NewProfileRepository(pool),
		Incidents:   repository.NewIncidentRepository(pool),
		Comments:    repository.NewCommentRepository(pool),
		Attachments: repository.NewAttachmentRepository(pool),
		History:     repository.NewIncidentHistoryRepository(pool),
	}
}

// MemoryRepositories exposes an in-process store through the repository ports.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:       store.Users(),
		Profiles:    store.Profiles(),
		Incidents:   store.Incidents(),
		Comments:    store.Comments(),
		Attachments: store.Attachments(),
		History:     store.History(),
	}
}

// Container holds every wired collaborator of a running helpdesk.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Postgres *persistence.Postgres
	Redis    *persistence.Redis

	Repos      Repositories
	Sessions   repository.SessionRegistry
	Dispatcher events.Dispatcher
	Tokens     *auth.TokenManager
	Classifier classifier.Classifier

	Incidents     *service.IncidentService
	Comments      *service.CommentService
	Acks          *service.AcknowledgmentService
	Dashboard     *service.DashboardService
	Quarantine    *service.QuarantineService
	Auth          *service.AuthService
	Profiles      *service.ProfileService
	Notifications *service.NotificationService
}

// Build connects the configured backends and wires the services on top of them.
// Without POSTGRES_DSN data lives in memory; without REDIS_ADDR so do sessions.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		pg.Close()
		return nil, err
	}

	repos := MemoryRepositories(memory.New())
	if pg.Enabled() {
		repos = PostgresRepositories(pg)
	}

	var sessions repository.SessionRegistry = memory.NewSessionRegistry(nil)
	if rdb.Enabled() {
		sessions = repository.NewRedisSessionRegistry(rdb.Client, cfg.Redis.KeyPrefix)
	}

	c := Wire(cfg, logger, repos, sessions)
	c.Postgres = pg
	c.Redis = rdb
	return c, nil
}

// Wire assembles services over already-built repositories and session registry.
func Wire(cfg *config.Config, logger *zap.Logger, repos Repositories, sessions repository.SessionRegistry) *Container {
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	cls := classifier.NewDefault()

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Postgres:   &persistence.Postgres{},
		Redis:      &persistence.Redis{},
		Repos:      repos,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Tokens:     tokens,
		Classifier: cls,
	}

	c.Incidents = service.NewIncidentService(service.IncidentDependencies{
		IncidentRepo:   repos.Incidents,
		UserRepo:       repos.Users,
		ProfileRepo:    repos.Profiles,
		CommentRepo:    repos.Comments,
		AttachmentRepo: repos.Attachments,
		HistoryRepo:    repos.History,
		Classifier:     cls,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	c.Comments = service.NewCommentService(service.CommentDependencies{
		IncidentRepo: repos.Incidents,
		CommentRepo:  repos.Comments,
	})
	c.Acks = service.NewAcknowledgmentService(service.AcknowledgmentDependencies{
		IncidentRepo: repos.Incidents,
		UserRepo:     repos.Users,
		HistoryRepo:  repos.History,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	c.Dashboard = service.NewDashboardService(service.DashboardDependencies{IncidentRepo: repos.Incidents})
	c.Quarantine = service.NewQuarantineService(service.QuarantineDependencies{
		UserRepo:   repos.Users,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	c.Auth = service.NewAuthService(service.AuthDependencies{
		UserRepo:     repos.Users,
		ProfileRepo:  repos.Profiles,
		Sessions:     sessions,
		TokenManager: tokens,
		BcryptCost:   cfg.Auth.BcryptCost,
		Logger:       logger,
	})
	c.Profiles = service.NewProfileService(repos.Profiles)
	c.Notifications = service.NewNotificationService(dispatcher, logger, metrics, cfg.Automation, cfg.Slack)
	c.Notifications.RegisterHandlers()

	return c
}

// Close releases backend connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
