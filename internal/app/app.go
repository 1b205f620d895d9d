package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/passgen/composer"
	"github.com/sundayezeilo/passgen/internal/config"
	"github.com/sundayezeilo/passgen/internal/db"
	"github.com/sundayezeilo/passgen/internal/generation"
	"github.com/sundayezeilo/passgen/internal/idgen"
	"github.com/sundayezeilo/passgen/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DBPool  *pgxpool.Pool // nil when auditing is disabled
	Server  *server.Server
	Handler *generation.Handler
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := NewLogger(os.Stdout, cfg.App.LogLevel).With(
		"service", cfg.App.ServiceName,
	)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.App.ServiceVersion,
		"audit", cfg.Password.AuditEnabled,
	)

	var (
		dbPool *pgxpool.Pool
		repo   generation.Repository
	)
	if cfg.Password.AuditEnabled {
		dbPool, err = connectDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(cfg.Database.URL()); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		repo = generation.NewRepository(dbPool, &generation.RepositoryConfig{
			IDGenerator: idgen.New(idgen.V7, idgen.WithRetries(1)),
		})
	}

	svc := generation.NewService(repo, &generation.ServiceConfig{
		Composer:      composer.New(composer.NewCryptoSource()),
		DefaultLength: cfg.Password.DefaultLength,
		MaxLength:     cfg.Password.MaxLength,
	})
	handler := generation.NewHandler(generation.HandlerConfig{
		Service: svc,
		Logger:  logger,
	})

	srv := server.New(cfg, logger, handler)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"default_length", cfg.Password.DefaultLength,
		"max_length", cfg.Password.MaxLength,
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		DBPool:  dbPool,
		Server:  srv,
		Handler: handler,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown releases the database pool, if any.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}
	return nil
}

// loadEnv loads a .env file in development and test environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// connectDatabase opens and pings the audit database pool.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return pool, nil
}
