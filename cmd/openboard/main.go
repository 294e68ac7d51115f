// Command openboard runs the collaboration API server: workspaces, boards,
// tasks, comments, membership, and revision history over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/boards"
	"github.com/openboard-dev/openboard/pkg/config"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/middleware"
	"github.com/openboard-dev/openboard/pkg/mutation"
	"github.com/openboard-dev/openboard/pkg/observability"
	"github.com/openboard-dev/openboard/pkg/tasks"
	"github.com/openboard-dev/openboard/pkg/workspaces"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (optional, OTLP). Metrics go out through Prometheus below.
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Storage backend.
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	// Redis is optional: it backs the membership role cache L2 and the
	// distributed rate limiter. Without it both fall back to in-process.
	redisClient, err := openRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	members, err := membership.NewCachedStore(
		backend.memberships, cfg.Cache.MembershipCacheSize, redisClient, cfg.Cache.MembershipCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create membership cache: %w", err)
	}

	resolver, err := hierarchy.NewResolver(backend.resources, cfg.Cache.ResolverCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create chain resolver: %w", err)
	}

	policy, err := loadPolicy(ctx, cfg, logger)
	if err != nil {
		return err
	}

	authorizer := authz.NewAuthorizer(members, policy)
	coordinator := mutation.NewCoordinator(resolver, authorizer, backend.mutations, logger, metrics)

	workspaceService := workspaces.NewService(
		coordinator, backend.workspaces, members, backend.invitations, backend.revisions, logger)
	boardService := boards.NewService(coordinator, backend.resources, backend.revisions, logger)
	taskService := tasks.NewService(coordinator, backend.resources, backend.revisions, logger)

	// Expired invitations are purged on a schedule.
	scheduler := cron.New()
	if _, err := workspaceService.ScheduleInvitationCleanup(scheduler, cfg.Invitations.CleanupSpec); err != nil {
		return fmt.Errorf("failed to schedule invitation cleanup: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := buildRouter(cfg, logger, metrics, redisClient,
		workspaceService, boardService, taskService)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: buildHealthMux(cfg, registry, backend, redisClient),
	}

	var g errgroup.Group
	g.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Blocks until SIGINT/SIGTERM, then drains the API server and runs
		// the registered shutdown hooks.
		// Hooks run newest first: the health server stops before the OTel
		// exporter flushes.
		shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
		shutdown.RegisterShutdownFunc(func(sctx context.Context) error {
			return observability.ShutdownOTel(sctx, otelProviders, logger)
		})
		shutdown.RegisterShutdownFunc(func(sctx context.Context) error {
			return healthServer.Shutdown(sctx)
		})
		err := shutdown.WaitForShutdown()
		cancel()
		return err
	})

	return g.Wait()
}

// loadPolicy picks the role table: the built-in defaults, or a YAML file with
// optional hot reload.
func loadPolicy(ctx context.Context, cfg *config.Config, logger *observability.Logger) (authz.Source, error) {
	if cfg.Policy.Path == "" {
		logger.Info("Using built-in authorization policy")
		return authz.DefaultPolicy(), nil
	}

	reloader, err := authz.NewReloader(cfg.Policy.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy file: %w", err)
	}
	logger.Infof("Loaded authorization policy from %s", cfg.Policy.Path)

	if cfg.Policy.HotReload {
		go func() {
			if err := reloader.Watch(ctx); err != nil {
				logger.WithError(err).Error("Policy watcher stopped")
			}
		}()
	}
	return reloader, nil
}

// openRedis connects to redis when configured. A connection failure is logged
// but not fatal: the caches degrade to in-process only.
func openRedis(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*redis.Client, error) {
	if cfg.Cache.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.Cache.RedisPassword != "" {
		opts.Password = cfg.Cache.RedisPassword
	}
	if cfg.Cache.RedisDB != 0 {
		opts.DB = cfg.Cache.RedisDB
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable at startup, continuing without it")
	} else {
		logger.Infof("Connected to redis at %s", opts.Addr)
	}
	return client, nil
}

func buildRouter(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics,
	redisClient *redis.Client, workspaceService *workspaces.Service,
	boardService *boards.Service, taskService *tasks.Service) http.Handler {

	router := mux.NewRouter()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogging(logger))
	if metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
	}
	router.Use(middleware.NewActorMiddleware().Handler)
	if cfg.RateLimit.Enabled {
		limitConfig := &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.WindowDuration,
			BurstSize:         cfg.RateLimit.BurstSize,
		}
		if redisClient != nil {
			router.Use(middleware.NewDistributedRateLimitMiddleware(redisClient, limitConfig).Handler)
		} else {
			router.Use(middleware.NewRateLimitMiddleware(limitConfig).Handler)
		}
	}

	workspaces.NewHandler(workspaceService).RegisterRoutes(router)
	boards.NewHandler(boardService).RegisterRoutes(router)
	tasks.NewHandler(taskService).RegisterRoutes(router)

	if cfg.Observability.OTelEnabled {
		return otelhttp.NewHandler(router, "openboard.http")
	}
	return router
}

// buildHealthMux serves probes and metrics on the side port.
func buildHealthMux(cfg *config.Config, registry *prometheus.Registry, backend *storageBackend, redisClient *redis.Client) *http.ServeMux {
	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(backend.db, redisClient)
	observability.RegisterHealthRoutes(healthMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	return healthMux
}
