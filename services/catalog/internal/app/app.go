package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wise004/Edupress-sub001/pkg/database"
	"github.com/wise004/Edupress-sub001/pkg/health"
	pkgkafka "github.com/wise004/Edupress-sub001/pkg/kafka"
	"github.com/wise004/Edupress-sub001/pkg/middleware"
	"github.com/wise004/Edupress-sub001/pkg/tracing"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/config"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/event"
	handler "github.com/wise004/Edupress-sub001/services/catalog/internal/handler/http"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
	esprovider "github.com/wise004/Edupress-sub001/services/catalog/internal/provider/elasticsearch"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider/memory"
	pgprovider "github.com/wise004/Edupress-sub001/services/catalog/internal/provider/postgres"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider/upstream"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/service"
)

const serviceName = "catalog-service"

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	search         *esprovider.Provider
	catalog        *service.CatalogService
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	stopBackground context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Environment
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tcfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}

	p, err := a.newProvider(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.SearchEngine == config.SearchEngineElasticsearch {
		a.search, err = esprovider.New(ctx, esprovider.Config{
			URL:   cfg.ElasticsearchURL,
			Index: cfg.SearchIndex,
		}, p, logger)
		if err != nil {
			a.closePool()
			return nil, fmt.Errorf("init elasticsearch search: %w", err)
		}
		logger.Info("elasticsearch course search initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.SearchIndex),
		)
		p = a.search
	}

	catalog := service.NewCatalogService(p, service.Config{
		ProviderName:    cfg.Provider,
		PageSize:        cfg.PageSize,
		RefreshInterval: cfg.RefreshInterval,
	}, logger)
	a.catalog = catalog

	// A provider that is down at startup leaves an empty catalog; the
	// periodic refresh or an admin refresh fills it later.
	if err := catalog.Refresh(ctx); err != nil {
		logger.Warn("initial catalog load failed", slog.String("error", err.Error()))
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("provider", catalog.Ping)
	if a.search != nil {
		healthHandler.RegisterNonCritical("elasticsearch", a.search.PingIndex)
	}

	if cfg.EventsEnabled {
		consumer := event.NewConsumer(catalog, logger)
		store := pkgkafka.NewMemoryIdempotencyStore(time.Hour)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  serviceName,
			Topic:    event.TopicCourseChanged,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(store, consumer.Handle, logger), logger)
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", event.TopicCourseChanged),
		)
	}

	bgCtx, stop := context.WithCancel(context.Background())
	a.stopBackground = stop

	routerCfg := handler.RouterConfig{
		PageSize:    cfg.PageSize,
		CacheMaxAge: cfg.CacheMaxAge,
		PprofCIDRs:  cfg.PprofCIDRs,
		CORS:        middleware.DefaultCORSConfig(),
	}
	routerCfg.CORS.AllowedOrigins = cfg.CORSOrigins
	if cfg.RateLimit > 0 {
		routerCfg.RateLimit = &middleware.RateLimitConfig{
			Service: "catalog",
			RPS:     cfg.RateLimit,
			Burst:   cfg.RateBurst,
		}
	}
	router := handler.NewRouter(bgCtx, catalog, healthHandler, routerCfg, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// newProvider builds the course-data provider selected by CATALOG_PROVIDER.
func (a *App) newProvider(ctx context.Context) (provider.Provider, error) {
	switch a.cfg.Provider {
	case provider.KindPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.URL = a.cfg.DatabaseURL
		pool, err := database.NewPostgresPool(ctx, pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool

		if err := database.RegisterPoolMetrics(pool, "catalog"); err != nil {
			a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		if a.cfg.Migrate {
			if err := pgprovider.Migrate(ctx, pool, a.logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		tracer := database.NewQueryTracer("postgresql", 200*time.Millisecond, a.logger)
		a.logger.Info("postgres course provider initialized")
		return pgprovider.New(pool, tracer), nil

	case provider.KindUpstream:
		p, err := upstream.NewDefault(upstream.Config{BaseURL: a.cfg.UpstreamURL}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init upstream provider: %w", err)
		}
		a.logger.Info("upstream course provider initialized", slog.String("url", a.cfg.UpstreamURL))
		return p, nil

	default:
		if a.cfg.SeedFile != "" {
			p, err := memory.LoadFile(a.cfg.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("load seed catalog: %w", err)
			}
			a.logger.Info("memory course provider initialized", slog.String("seed", a.cfg.SeedFile))
			return p, nil
		}
		a.logger.Info("memory course provider initialized with built-in seed")
		return memory.Default(), nil
	}
}

// Run starts the HTTP server, the refresh loop and the Kafka consumer,
// blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go a.catalog.Run(ctx)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopBackground()

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.closePool()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closePool() {
	if a.pool != nil {
		a.pool.Close()
	}
}
