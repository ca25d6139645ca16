package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/board"
	"github.com/xavierca1/ontriq-site/internal/concierge"
	"github.com/xavierca1/ontriq-site/internal/config"
	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/infra/database"
	"github.com/xavierca1/ontriq-site/internal/infra/http/middleware"
	"github.com/xavierca1/ontriq-site/internal/infra/identity"
	"github.com/xavierca1/ontriq-site/internal/infra/integration/gemini"
	"github.com/xavierca1/ontriq-site/internal/infra/integration/openai"
	"github.com/xavierca1/ontriq-site/internal/infra/mail"
	"github.com/xavierca1/ontriq-site/internal/infra/memory"
	"github.com/xavierca1/ontriq-site/internal/infra/queue"
	"github.com/xavierca1/ontriq-site/internal/infra/session"
	"github.com/xavierca1/ontriq-site/internal/logger"
	"github.com/xavierca1/ontriq-site/internal/ratelimit"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

var defaultStages = []string{"New Lead", "Contacted", "Proposal", "Won"}

type repositories struct {
	inquiries entity.InquiryRepositoryInterface
	stages    entity.StageRepositoryInterface
	leads     entity.LeadRepositoryInterface
	users     entity.UserRepositoryInterface
	profiles  entity.ProfileRepositoryInterface
}

// app holds every long-lived dependency of the serve command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db       *sql.DB
	repos    repositories
	rabbit   *queue.RabbitMQ
	redis    *session.RedisStore
	sessions *session.Manager

	identity  *identity.Authenticator
	createInq *usecase.CreateInquiryUseCase
	concierge *concierge.Service
	limiter   *ratelimit.Limiter
	boards    *board.Registry
	notifier  *queue.Worker
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "ontriq-api")
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func openRepositories(cfg *config.Config, logger *zap.Logger) (repositories, *sql.DB, error) {
	if !cfg.PersistenceEnabled() {
		logger.Warn("DATABASE_URL not set, using the in-memory store; data is lost on restart")
		store := memory.NewStore()
		store.SeedStages(defaultStages...)
		return repositories{
			inquiries: store.Inquiries(),
			stages:    store.Stages(),
			leads:     store.Leads(),
			users:     store.Users(),
			profiles:  store.Users(),
		}, nil, nil
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return repositories{}, nil, err
	}
	return repositories{
		inquiries: database.NewInquiryRepository(db),
		stages:    database.NewStageRepository(db),
		leads:     database.NewLeadRepository(db),
		users:     database.NewUserRepository(db),
		profiles:  database.NewProfileRepository(db),
	}, db, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	repos, db, err := openRepositories(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.repos, a.db = repos, db

	if a.db != nil && migrate {
		if err := database.ApplyMigrations(ctx, a.db); err != nil {
			a.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	if err := a.initSessions(); err != nil {
		a.Close()
		return nil, err
	}

	a.identity = identity.NewAuthenticator(repos.users, repos.profiles)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := a.bootstrapAdmin(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	var producer usecase.QueueProducerInterface
	if cfg.RabbitMQURL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.rabbit = rmq
		producer = queue.NewProducer(rmq.Ch)

		if cfg.MailEnabled() {
			sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass,
				cfg.MailFrom, config.Split(cfg.NotifyTo), cfg.DashboardURL)
			a.notifier = queue.NewWorker(rmq.Ch, sender, logger.Named("notifier"))
		} else {
			logger.Warn("MAIL_HOST or NOTIFY_TO not set, inquiry notifications stay queued")
		}
	} else {
		logger.Warn("RABBITMQ_URL not set, inquiry notifications are disabled")
	}
	a.createInq = usecase.NewCreateInquiryUseCase(repos.inquiries, producer, logger)

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if provider == nil {
		logger.Warn("no AI provider credential set, chat requests will fail", zap.String("provider", cfg.ConciergeProvider))
	}
	a.concierge = concierge.NewService(provider, logger.Named("concierge"))

	a.limiter = ratelimit.New(ratelimit.Options{
		Interval:               cfg.ChatRateInterval,
		UniqueTokenPerInterval: cfg.ChatRateMaxTokens,
	})

	convert := usecase.NewConvertInquiryUseCase(repos.inquiries, repos.leads,
		usecase.ParseConversionPolicy(cfg.ConversionPolicy), logger)
	boardLogger := logger.Named("board")
	a.boards = board.NewRegistry(func() *board.Board {
		return board.New(board.Repositories{
			Inquiries: repos.inquiries,
			Stages:    repos.stages,
			Leads:     repos.leads,
		}, convert, board.Options{
			Logger:        boardLogger,
			OnDropSettled: func(s board.ActionState) { middleware.RecordBoardDrop(string(s)) },
		})
	})

	return a, nil
}

// bootstrapAdmin registers ADMIN_EMAIL once; an existing account is left as is.
func (a *app) bootstrapAdmin(ctx context.Context) error {
	_, err := a.identity.CreateUser(ctx, a.cfg.AdminEmail, a.cfg.AdminPassword, true)
	if errors.Is(err, entity.ErrEmailAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	a.logger.Info("bootstrap admin created", zap.String("email", a.cfg.AdminEmail))
	return nil
}

func (a *app) initSessions() error {
	var store session.Store = session.NewMemoryStore()
	if a.cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(a.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect session store: %w", err)
		}
		a.redis = rs
		store = rs
	} else {
		a.logger.Warn("REDIS_URL not set, admin sessions are kept in memory")
	}

	secret := a.cfg.SessionSecret
	if secret == "" {
		a.logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
		secret = uuid.NewString() + uuid.NewString()
	}

	m, err := session.NewManager(store, secret, a.cfg.SessionTTL)
	if err != nil {
		return err
	}
	a.sessions = m
	return nil
}

// newProvider returns nil when the selected provider has no credential.
func newProvider(ctx context.Context, cfg *config.Config) (concierge.Provider, error) {
	switch cfg.ConciergeProvider {
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.ConciergeModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		if c == nil {
			return nil, nil
		}
		return c, nil
	case "openai", "":
		c := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ConciergeModel)
		if c == nil {
			return nil, nil
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown CONCIERGE_PROVIDER %q", cfg.ConciergeProvider)
	}
}

func (a *app) Close() {
	if a.rabbit != nil {
		a.rabbit.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Sync()
}
