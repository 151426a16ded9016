package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/storefront/internal/analytics"
	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	handler "github.com/utafrali/EcommerceGo/storefront/internal/handler/http"
	"github.com/utafrali/EcommerceGo/storefront/internal/session"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage/memory"
	pgstore "github.com/utafrali/EcommerceGo/storefront/internal/storage/postgres"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage/postgres/migrations"
	redisstore "github.com/utafrali/EcommerceGo/storefront/internal/storage/redis"
	"github.com/utafrali/EcommerceGo/storefront/pkg/database"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

// ServiceName tags logs, metrics and traces.
const ServiceName = "storefront"

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	sessions       *session.Manager
	rdb            *redis.Client
	pool           *pgxpool.Pool
	pgState        *pgstore.Store
	producer       *pkgkafka.Producer
	amqpConn       *amqp.Connection
	amqpCh         *amqp.Channel
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	factory, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		a.closeResources(ctx)
		return nil, err
	}

	// Backend API client with circuit breaker.
	apiClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg.HTTPClient()), cfg.CircuitBreaker("storefront-api"), logger)
	logger.Info("circuit breaker initialized",
		slog.String("name", "storefront-api"),
		slog.String("base_url", cfg.APIBaseURL),
		slog.Int("timeout_seconds", cfg.CBTimeout),
	)

	sink, err := a.openSink(healthHandler)
	if err != nil {
		a.closeResources(ctx)
		return nil, err
	}

	a.sessions = session.NewManager(session.Dependencies{
		Storage:    factory,
		API:        apiClient,
		APIBaseURL: cfg.APIBaseURL,
		Sink:       sink,
		Analytics: analytics.Options{
			BufferSize:    cfg.AnalyticsBufferSize,
			FlushInterval: time.Duration(cfg.AnalyticsFlushSeconds) * time.Second,
		},
		Logger: logger,
	}, time.Duration(cfg.SessionIdleMins)*time.Minute)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(a.sessions, healthHandler, logger, handler.RouterConfig{
		ServiceName: ServiceName,
		CORS:        corsCfg,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		RateLimit:   cfg.RateLimit(),
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured state backend and returns the factory
// sessions open their namespace with.
func (a *App) openStorage(ctx context.Context, hh *health.Handler) (storage.Factory, error) {
	cfg := a.cfg

	switch cfg.Storage {
	case config.StorageRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)

		store := redisstore.New(rdb, cfg.StateTTL())
		hh.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		return func(ns string) storage.Backend { return store.Namespace(ns) }, nil

	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), a.logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.logger.Info("connected to PostgreSQL")

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
			a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")

		store := pgstore.New(pool, database.QueryTracer{
			SlowThreshold: time.Duration(cfg.SlowQueryThresholdMs) * time.Millisecond,
			Logger:        a.logger,
		})
		a.pgState = store
		hh.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return func(ns string) storage.Backend { return store.Namespace(ns) }, nil

	default:
		a.logger.Warn("session state is kept in memory and lost on restart")
		store := memory.New()
		return func(ns string) storage.Backend { return store.Namespace(ns) }, nil
	}
}

// openSink builds the configured analytics sink.
func (a *App) openSink(hh *health.Handler) (analytics.Sink, error) {
	cfg := a.cfg

	switch cfg.AnalyticsSink {
	case config.SinkHTTP:
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg.HTTPClient()), cfg.CircuitBreaker("storefront-analytics"), a.logger)
		a.logger.Info("analytics posting to backend", slog.String("url", cfg.AnalyticsEndpoint()))
		return analytics.NewHTTPSink(client, cfg.AnalyticsEndpoint()), nil

	case config.SinkKafka:
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), a.logger)
		a.producer = producer
		a.logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		hh.RegisterOptional("kafka", producer.Ping)
		return analytics.NewKafkaSink(producer, ServiceName), nil

	case config.SinkAMQP:
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.amqpConn = conn
		ch, err := conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("open rabbitmq channel: %w", err)
		}
		a.amqpCh = ch
		q, err := ch.QueueDeclare(cfg.AMQPQueue, true, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", cfg.AMQPQueue, err)
		}
		a.logger.Info("analytics publishing to rabbitmq", slog.String("queue", q.Name))
		hh.RegisterOptional("rabbitmq", func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("rabbitmq connection closed")
			}
			return nil
		})
		return analytics.NewAMQPSink(ch, q.Name), nil

	default:
		return analytics.NoneSink{}, nil
	}
}

// Handler returns the HTTP handler the server runs.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and background loops, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go a.sessions.Run(ctx, time.Duration(a.cfg.SessionSweepSecs)*time.Second)
	if a.pgState != nil && a.cfg.StateTTL() > 0 {
		go a.purgeLoop(ctx)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// purgeLoop deletes persisted state older than the state TTL. Redis expires
// keys on its own; Postgres rows are removed here.
func (a *App) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(a.cfg.PurgeIntervalMins) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := a.pgState.Purge(ctx, time.Now().Add(-a.cfg.StateTTL()))
			if err != nil {
				a.logger.Error("state purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.Info("expired session state purged", slog.Int64("rows", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close sessions before the sinks and stores they flush into.
	a.sessions.CloseAll(shutdownCtx)

	a.closeResources(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("rabbitmq channel close error", slog.String("error", err.Error()))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("rabbitmq close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
