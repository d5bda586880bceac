// internal/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	router "finledger/internal/api"
	"finledger/internal/api/handler"
	"finledger/internal/auth"
	"finledger/internal/config"
	"finledger/internal/lock"
	"finledger/internal/metrics"
	"finledger/internal/repository"
	"finledger/internal/repository/memory"
	"finledger/internal/repository/postgres"
	"finledger/internal/service"
	"finledger/internal/util"
	"finledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *zap.Logger

	// Exactly one storage backend is set, depending on STORAGE_DRIVER.
	DB    *sqlx.DB
	Store *memory.Store

	Redis   *redis.Client
	Metrics *metrics.Ledger
	Tokens  *auth.TokenManager

	// Repositories
	UserRepository      repository.UserRepository
	StatementRepository repository.StatementRepository

	// Services
	UserService   service.UserService
	LedgerService service.LedgerService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	if err := util.InitLogger(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.StorageDriver),
		zap.String("lock", cfg.Lock.Backend))

	// 3. Storage backend and repositories
	var (
		txBeginner db.TxBeginner
		executor   repository.DBExecutor
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		app.Store = memory.NewStore()
		txBeginner, executor = app.Store, app.Store
		app.UserRepository = memory.NewUserRepository(app.Store)
		app.StatementRepository = memory.NewStatementRepository(app.Store)
		app.Logger.Info("Using in-memory storage.")
	default:
		database, err := db.NewPostgresDB(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		if err := postgres.Migrate(ctx, database); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		txBeginner, executor = db.SQLXBeginner{DB: database}, database
		app.UserRepository = postgres.NewUserRepository()
		app.StatementRepository = postgres.NewStatementRepository()
		app.Logger.Info("Database connection established.")
	}

	// 4. Per-user locker
	var locker lock.Locker
	switch cfg.Lock.Backend {
	case config.LockRedis:
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedis(app.Redis, lock.RedisOptions{TTL: cfg.Lock.TTL, Wait: cfg.Lock.Wait}, app.Logger)
		app.Logger.Info("Redis locker initialized.", zap.String("addr", cfg.Redis.Addr))
	default:
		locker = lock.NewLocal()
	}

	// 5. Initialize Services
	app.Metrics = metrics.NewLedger()
	app.Tokens = auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	app.UserService = service.NewUserService(executor, app.UserRepository, app.Tokens, app.Logger)
	app.LedgerService = service.NewLedgerService(
		txBeginner,
		executor,
		app.UserRepository,
		app.StatementRepository,
		locker,
		app.Logger,
		app.Metrics,
	)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	userHandler := handler.NewUserHandler(app.UserService, app.Logger)
	statementHandler := handler.NewStatementHandler(app.LedgerService, app.Logger)
	app.HTTPHandler = router.NewRouter(userHandler, statementHandler, app.Tokens, app.Metrics, app.Logger, cfg.CORSOrigins)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", zap.Error(err))
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	_ = app.Logger.Sync()
	return nil
}
