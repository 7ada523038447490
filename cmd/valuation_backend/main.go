package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	portsrepo "github.com/holdwatch/valuation_backend/internal/core/ports/repositories"
	"github.com/holdwatch/valuation_backend/internal/core/services"
	"github.com/holdwatch/valuation_backend/internal/handlers"
	"github.com/holdwatch/valuation_backend/internal/market"
	"github.com/holdwatch/valuation_backend/internal/middleware"
	"github.com/holdwatch/valuation_backend/internal/platform/config"
	"github.com/holdwatch/valuation_backend/internal/repositories/database/pgsql"
	"github.com/holdwatch/valuation_backend/internal/repositories/rediscache"
	"github.com/holdwatch/valuation_backend/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos, closeCache, err := buildRepositories(cfg, dbPool, logger)
	if err != nil {
		logger.Error("Failed to initialize repositories", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeCache()

	registry := market.NewRegistry(market.NewHTTPClient(cfg.ProviderTimeout), cfg.ProviderTimeout, cfg.MarketEnable)
	serviceContainer := services.NewServiceContainer(cfg, repos, registry)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting",
		slog.String("port", cfg.Port),
		slog.Bool("market_enabled", cfg.MarketEnable),
		slog.String("cache_backend", cfg.CacheBackend))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildRepositories wires the persistence layer. The cache backend is
// selectable; everything else lives in PostgreSQL.
func buildRepositories(cfg *config.Config, dbPool *pgxpool.Pool, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	repos := portsrepo.RepositoryProvider{
		HoldingRepo:   pgsql.NewHoldingRepository(dbPool),
		ValuationRepo: pgsql.NewValuationRepository(dbPool),
	}

	closeCache := func() {}
	if cfg.CacheBackend == config.CacheBackendRedis {
		redisRepo, err := rediscache.NewCacheRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return repos, closeCache, err
		}
		repos.CacheRepo = redisRepo
		closeCache = func() {
			if cerr := redisRepo.Close(); cerr != nil {
				logger.Error("Error closing Redis connection", slog.String("error", cerr.Error()))
			}
		}
		logger.Info("Price cache backed by Redis", slog.String("addr", cfg.RedisAddr))
	} else {
		repos.CacheRepo = pgsql.NewPriceCacheRepository(dbPool)
		logger.Info("Price cache backed by PostgreSQL")
	}
	return repos, closeCache, nil
}

// runMigrations applies all pending "up" migrations before the server accepts
// traffic.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Open a temporary standard sql.DB connection for migrations
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		_ = migrationDB.Close()
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
