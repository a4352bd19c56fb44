package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/handbook/internal/app/controllers"
	"github.com/yigit/handbook/internal/app/jobs"
	appMigrations "github.com/yigit/handbook/internal/app/migrations"
	"github.com/yigit/handbook/internal/app/notifier"
	appRepos "github.com/yigit/handbook/internal/app/repositories"
	appRoutes "github.com/yigit/handbook/internal/app/routes"
	appServices "github.com/yigit/handbook/internal/app/services"
	"github.com/yigit/handbook/internal/config"
	"github.com/yigit/handbook/internal/db"
	appMiddleware "github.com/yigit/handbook/internal/middleware"
	pkgAuth "github.com/yigit/handbook/internal/pkg/auth"
	"github.com/yigit/handbook/internal/pkg/cache"
	"github.com/yigit/handbook/internal/pkg/helpers"
	"github.com/yigit/handbook/internal/pkg/logger"
	"github.com/yigit/handbook/internal/pkg/queue"
	"github.com/yigit/handbook/internal/seed"
)

const adminCacheKey = "handbook:admin:canonical"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos *appRepos.Repositories
	Cache cache.Cache

	IdentityService     appServices.IdentityService
	MessageService      appServices.MessageService
	ConversationService appServices.ConversationService
	NotificationService appServices.NotificationService
	PresenceService     appServices.PresenceService
	AnnouncementService appServices.AnnouncementService
	NotificationHandler *appServices.NotificationEventHandler

	Dispatcher   notifier.Dispatcher
	QueueServer  *queue.AsynqServer // nil unless the redis queue backend is selected
	RetentionJob *jobs.RetentionJob // nil when retention is disabled

	JWTService     *pkgAuth.JWTService
	AuthMiddleware *appMiddleware.AuthMiddleware // nil when auth is disabled
	RateLimiter    *appMiddleware.RateLimiter    // nil when rate limiting is disabled
	Controllers    appRoutes.Controllers

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.EqualFold(cfg.Logging.Format, "text"),
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// SetupCache connects the configured cache backend
func SetupCache(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (cache.Cache, error) {
	if !cfg.UsesRedisCache() {
		lgr.Info().Msg("Using in-memory cache")
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis cache: %w", err)
	}
	lgr.Info().Msg("Using redis cache")
	return c, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, backend cache.Cache, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Cache: backend}
	deps.Repos = appRepos.NewRepositories(database.Pool)
	repos := deps.Repos

	adminTTL := helpers.ParseDuration(cfg.Cache.AdminTTL, 30*time.Second)
	adminCache := cache.NewTTLCache[appServices.AdminCacheEntry](backend, adminCacheKey, adminTTL)

	deps.IdentityService = appServices.NewIdentityService(repos.ParticipantRepository, adminCache, logger.Component("identity"))
	deps.NotificationService = appServices.NewNotificationService(repos.NotificationRepository, deps.IdentityService, logger.Component("notifications"))
	deps.NotificationHandler = appServices.NewNotificationEventHandler(
		repos.MessageRepository,
		repos.AnnouncementRepository,
		repos.ParticipantRepository,
		deps.IdentityService,
		deps.NotificationService,
		logger.Component("notification-events"),
	)

	if err := buildDispatcher(cfg, deps); err != nil {
		return nil, err
	}

	deps.MessageService = appServices.NewMessageService(
		repos.MessageRepository,
		deps.IdentityService,
		deps.NotificationService,
		deps.Dispatcher,
		logger.Component("messages"),
	)
	deps.ConversationService = appServices.NewConversationService(
		deps.MessageService,
		deps.IdentityService,
		repos.ParticipantRepository,
		logger.Component("conversations"),
	)
	deps.PresenceService = appServices.NewPresenceService(repos.ParticipantRepository, logger.Component("presence"))
	deps.AnnouncementService = appServices.NewAnnouncementService(repos.AnnouncementRepository, deps.Dispatcher, logger.Component("announcements"))

	if cfg.Retention.Enabled {
		period := helpers.ParseDuration(cfg.Retention.Period, 90*24*time.Hour)
		job, err := jobs.NewRetentionJob(deps.NotificationService, cfg.Retention.Cron, period, logger.Component("retention"))
		if err != nil {
			deps.Dispatcher.Close()
			return nil, err
		}
		deps.RetentionJob = job
	}

	if cfg.AuthEnabled() {
		accessExp := helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour)
		deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
			SecretKey:      cfg.JWT.Secret,
			AccessTokenExp: accessExp,
			TokenIssuer:    cfg.JWT.Issuer,
		})
		deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	} else {
		lgr.Warn().Msg("JWT secret not set, API authentication is disabled")
	}

	if cfg.RateLimit.Enabled {
		idle := helpers.ParseDuration(cfg.RateLimit.IdleTTL, 10*time.Minute)
		deps.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, idle)
	}

	health := appControllers.NewHealthController(map[string]appControllers.Pinger{
		"database": database,
		"cache":    backend,
	})
	deps.Controllers = appRoutes.Controllers{
		Message:      appControllers.NewMessageController(deps.MessageService, deps.ConversationService),
		Notification: appControllers.NewNotificationController(deps.NotificationService),
		User:         appControllers.NewUserController(deps.PresenceService),
		Announcement: appControllers.NewAnnouncementController(deps.AnnouncementService),
		Health:       health,
	}

	return deps, nil
}

// buildDispatcher wires notification side effects either in-process or through asynq
func buildDispatcher(cfg *config.Config, deps *Dependencies) error {
	taskTimeout := helpers.ParseDuration(cfg.Queue.TaskTimeout, 30*time.Second)
	log := logger.Component("notifier")

	if !cfg.UsesRedisQueue() {
		deps.Dispatcher = notifier.NewLocalDispatcher(deps.NotificationHandler, cfg.Queue.Workers, cfg.Queue.BufferSize, taskTimeout, log)
		deps.Logger.Info().Int("workers", cfg.Queue.Workers).Msg("Using in-process notification dispatcher")
		return nil
	}

	client, err := queue.NewAsynqClient(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}
	server, err := queue.NewAsynqServer(queue.ServerConfig{
		RedisURL:    cfg.Redis.URL,
		Concurrency: cfg.Queue.Workers,
		Queues:      cfg.Queue.QueueNames,
		Logger:      log,
	})
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to create queue server: %w", err)
	}
	server.Register(notifier.TaskType, notifier.TaskHandler(deps.NotificationHandler, log))

	deps.Dispatcher = notifier.NewQueueDispatcher(client, queue.EnqueueOption{
		Queue:    queue.QueueName(cfg.Queue.QueueNames),
		MaxRetry: cfg.Queue.MaxRetry,
		Timeout:  taskTimeout,
	}, cfg.Queue.Workers, cfg.Queue.BufferSize, log)
	deps.QueueServer = server
	deps.Logger.Info().Strs("queues", cfg.Queue.QueueNames).Msg("Using asynq notification dispatcher")
	return nil
}

// SeedDefaults creates the canonical admin when none exists. Failures are logged, not fatal.
func SeedDefaults(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	account := seed.AdminAccount{
		Email:     cfg.Seed.AdminEmail,
		Password:  cfg.Seed.AdminPassword,
		FirstName: cfg.Seed.AdminFirstName,
		LastName:  cfg.Seed.AdminLastName,
	}
	if _, err := seed.EnsureAdmin(ctx, deps.Repos.ParticipantRepository, deps.IdentityService, account, logger.Component("seed")); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// Start launches the background workers that run next to the HTTP server
func (d *Dependencies) Start(ctx context.Context) {
	if d.QueueServer != nil {
		go func() {
			if err := d.QueueServer.Run(ctx); err != nil {
				d.Logger.Error().Err(err).Msg("Notification queue workers stopped")
			}
		}()
	}
	if d.RetentionJob != nil {
		d.RetentionJob.Start(ctx)
	}
}

// Close stops background work and releases the cache
func (d *Dependencies) Close(ctx context.Context) {
	if d.RetentionJob != nil {
		d.RetentionJob.Stop()
	}
	if d.Dispatcher != nil {
		d.Dispatcher.Close()
	}
	if d.QueueServer != nil {
		_ = d.QueueServer.Stop(ctx)
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	appRoutes.SetupOps(router, deps.Controllers.Health)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
