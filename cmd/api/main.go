package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tenancy-service/internal/api/http"
	"github.com/spec-kit/tenancy-service/internal/api/http/handlers"
	"github.com/spec-kit/tenancy-service/internal/auth"
	"github.com/spec-kit/tenancy-service/internal/config"
	"github.com/spec-kit/tenancy-service/internal/events"
	"github.com/spec-kit/tenancy-service/internal/observability"
	"github.com/spec-kit/tenancy-service/internal/persistence"
	"github.com/spec-kit/tenancy-service/internal/repository"
	"github.com/spec-kit/tenancy-service/internal/service"
	"github.com/spec-kit/tenancy-service/internal/worker"
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

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, cfg.App, logger)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	tenantRepo := repository.NewTenantRepository(pool)
	unitRepo := repository.NewCachedDepartmentRepository(
		repository.NewDepartmentRepository(pool), redis, cfg.Tenancy.UnitCacheTTL(), logger)
	historyRepo := repository.NewTenancyHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewTenancyNotifier(dispatcher, logger).RegisterHandlers()
	if cfg.Kafka.Brokers != "" {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal("failed to init kafka publisher", zap.Error(err))
		}
		defer publisher.Close()
		publisher.Register(dispatcher)
	}

	authService := service.NewAuthService(cfg.Auth, tenantRepo, logger)
	tenancyService := service.NewTenancyService(service.TenancyDependencies{
		TenantRepo:  tenantRepo,
		UnitRepo:    unitRepo,
		HistoryRepo: historyRepo,
		Transactor:  repository.NewTransactor(pool),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), tenantRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tenancy:        handlers.NewTenancyHandler(tenancyService),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	monitor := worker.NewContractMonitor(tenancyService, metrics, logger, cfg.Tenancy.MonitorInterval())
	go monitor.Run(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
