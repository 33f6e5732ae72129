package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/event-service/internal/api/http"
	"github.com/spec-kit/event-service/internal/api/http/handlers"
	"github.com/spec-kit/event-service/internal/audit"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/config"
	"github.com/spec-kit/event-service/internal/observability"
	"github.com/spec-kit/event-service/internal/persistence"
	"github.com/spec-kit/event-service/internal/repository"
	"github.com/spec-kit/event-service/internal/service"
	"github.com/spec-kit/event-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("identity store requires POSTGRES_DSN")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	identityRepo := repository.NewIdentityRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	revocations, pruner := revocationBackend(cfg.Auth, pg, redis)
	logger.Info("revocation backend selected", zap.String("backend", cfg.Auth.RevocationBackend))

	var attempts auth.AttemptLimiter
	if cfg.Auth.LockoutThreshold > 0 {
		attempts = repository.NewLoginAttemptStore(redis.Client, cfg.Auth.LockoutWindow())
	}

	metrics := observability.NewMetrics()
	dispatcher := audit.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger, metrics).RegisterHandlers()

	tokens := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL(),
		cfg.Auth.RefreshTokenTTL(),
		auth.WithIssuer(cfg.Auth.JWTIssuer),
	)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Identities:  identityRepo,
		Revocations: revocations,
		Attempts:    attempts,
		Tokens:      tokens,
		Audit:       dispatcher,
	})
	if cfg.Auth.BootstrapAdminSubject != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminSubject, cfg.Auth.BootstrapAdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
		logger.Info("bootstrap admin ensured", zap.String("subject", service.NormalizeSubject(cfg.Auth.BootstrapAdminSubject)))
	}
	eventService := service.NewEventService(eventRepo, nil)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:          handlers.NewAuthHandler(authService),
		Admin:         handlers.NewAdminHandler(authService),
		Events:        handlers.NewEventsHandler(eventService),
		Authenticator: auth.NewAuthenticator(tokens, revocations, cfg.Auth.StoreTimeout(), dispatcher),
		Guard:         auth.NewGuard(dispatcher),
	})

	prunerDone := worker.StartRevocationPruner(ctx, pruner, cfg.Auth.RevocationPruneInterval(), logger)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-prunerDone
}

// revocationBackend picks the configured store. The pruner is nil when the backend
// expires entries on its own.
func revocationBackend(cfg config.AuthConfig, pg *persistence.Postgres, redis *persistence.Redis) (auth.RevocationStore, worker.ExpiredRevocationPruner) {
	switch cfg.RevocationBackend {
	case config.RevocationBackendMemory:
		store := auth.NewMemoryRevocationStore()
		return store, store
	case config.RevocationBackendPostgres:
		repo := repository.NewRevocationRepository(pg.PoolHandle())
		return repo, repo
	default:
		return repository.NewRedisRevocationStore(redis.Client), nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
