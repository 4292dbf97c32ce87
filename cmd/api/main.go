package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/admission-service/internal/api/http"
	"github.com/spec-kit/admission-service/internal/api/http/handlers"
	"github.com/spec-kit/admission-service/internal/auth"
	"github.com/spec-kit/admission-service/internal/config"
	"github.com/spec-kit/admission-service/internal/encoder"
	"github.com/spec-kit/admission-service/internal/events"
	"github.com/spec-kit/admission-service/internal/observability"
	"github.com/spec-kit/admission-service/internal/persistence"
	"github.com/spec-kit/admission-service/internal/repository"
	"github.com/spec-kit/admission-service/internal/service"
	"github.com/spec-kit/admission-service/internal/token"
	"github.com/spec-kit/admission-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := cfg.Credential.Location()
	if err != nil {
		logger.Fatal("invalid credential timezone", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var credentialRepo repository.CredentialRepository
	if pool := pg.PoolHandle(); pool != nil {
		credentialRepo = repository.NewCredentialRepository(pool)
	} else {
		credentialRepo = repository.NewMemoryCredentialRepository()
	}
	if ttl := cfg.Credential.CacheTTL(); redis.Enabled() && ttl > 0 {
		credentialRepo = repository.NewCachedCredentialRepository(credentialRepo, redis.Client, ttl, logger)
	}

	tokens, err := token.NewGenerator(cfg.Credential.TokenLength)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var forwarder service.EventForwarder
	if cfg.Events.NATSURL != "" {
		natsForwarder, err := events.NewNATSForwarder(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			logger.Fatal("failed to connect nats", zap.Error(err))
		}
		defer natsForwarder.Close()
		forwarder = natsForwarder
	}
	service.NewNotificationService(dispatcher, logger, forwarder).RegisterHandlers()

	store := service.NewBookingStore(service.BookingStoreDependencies{
		Repo:             credentialRepo,
		Tokens:           tokens,
		MaxTokenAttempts: cfg.Credential.MaxTokenAttempts,
		Location:         loc,
		Metrics:          metrics,
		Logger:           logger,
	})
	credentialService := service.NewCredentialService(service.CredentialDependencies{
		Store:      store,
		Encoder:    encoder.NewQREncoder(cfg.Credential.QRWidth),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Location:   loc,
	})

	sweeperDone := worker.StartExpirySweeper(ctx, credentialService, cfg.Credential.SweepInterval(), logger)

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Credentials:    handlers.NewCredentialsHandler(credentialService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-sweeperDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
