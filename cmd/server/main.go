package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/commissionledger/internal/adapter/http"
	"github.com/iho/commissionledger/internal/adapter/http/handler"
	"github.com/iho/commissionledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/commissionledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/commissionledger/internal/adapter/repository/redis"
	"github.com/iho/commissionledger/internal/infrastructure/config"
	"github.com/iho/commissionledger/internal/infrastructure/eventpublisher"
	"github.com/iho/commissionledger/internal/infrastructure/lock"
	"github.com/iho/commissionledger/internal/infrastructure/logger"
	"github.com/iho/commissionledger/internal/infrastructure/metrics"
	"github.com/iho/commissionledger/internal/infrastructure/postgres"
	"github.com/iho/commissionledger/internal/infrastructure/redis"
	"github.com/iho/commissionledger/internal/usecase"
)

const rateLimiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, &log); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClientWithConfig(ctx, redis.ClientConfig{
		URL:            cfg.RedisURL,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)

	publisher, closePublisher, err := buildPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	var outboxRepo usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if publisher == nil {
		outboxRepo = postgresRepo.NewNullOutboxRepository()
	}

	// Use cases
	transactionUC := usecase.NewTransactionUseCase(
		txManager,
		transactionRepo,
		outboxRepo,
		postgresRepo.NewULIDGenerator(),
		buildLocker(cfg, redisClient, log),
		postgresRepo.NewRetrier(log),
		usecase.WithCache(redisRepo.NewCache(redisClient), cfg.CacheTTL),
		usecase.WithMetrics(m),
		usecase.WithLogger(log),
	)
	reconciliationUC := usecase.NewReconciliationUseCase(transactionRepo, m, log)

	// HTTP
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		ReportHandler:      handler.NewReportHandler(reconciliationUC),
		HealthHandler: handler.NewHealthHandler(
			handler.HealthCheck{Name: "postgres", Check: pool.Ping},
			handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		),
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		HTTPMetrics:      middleware.NewHTTPMetrics(registry),
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:           log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	if publisher != nil {
		ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Metrics:    m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := ep.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	if rateLimiter != nil {
		go cleanupLoop(ctx, rateLimiter)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildLocker returns the lock backend named by cfg.LockBackend.
func buildLocker(cfg *config.Config, client goredis.UniversalClient, log zerolog.Logger) usecase.Locker {
	if cfg.LockBackend == config.LockBackendLocal {
		log.Warn().Msg("using in-process locks; transitions are only serialized within this instance")
		return lock.NewKeyedLocker()
	}

	opts := redisRepo.DefaultLockOptions()
	if cfg.LockExpiry > 0 {
		opts.Expiry = cfg.LockExpiry
	}
	return redisRepo.NewLocker(client, opts, log)
}

// buildPublisher returns the outbox sink named by cfg.EventPublisher.
// A nil publisher means outbox events are not recorded at all.
func buildPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	noop := func() {}

	switch cfg.EventPublisher {
	case config.PublisherNone:
		return nil, noop, nil
	case config.PublisherNATS:
		conn, err := eventpublisher.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to nats: %w", err)
		}
		return eventpublisher.NewNATSPublisher(conn), func() { drainNATS(conn, log) }, nil
	default:
		return eventpublisher.NewLogPublisher(log), noop, nil
	}
}

func drainNATS(conn *nats.Conn, log zerolog.Logger) {
	if err := conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain nats connection")
	}
}

func cleanupLoop(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(rateLimiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(rateLimiterIdle)
		}
	}
}
