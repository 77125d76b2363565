package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/derrickgolden/easyisp-engine/pkg/api"
	"github.com/derrickgolden/easyisp-engine/pkg/config"
	"github.com/derrickgolden/easyisp-engine/pkg/connectivity"
	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
	"github.com/derrickgolden/easyisp-engine/pkg/radius"
	"github.com/derrickgolden/easyisp-engine/pkg/storage/postgres"
	"github.com/derrickgolden/easyisp-engine/pkg/subscribers"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "easyisp-engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("version", version).Info("starting easyisp-engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	cm, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Storage.PostgresURL,
		ReplicaURLs: postgres.ParseReplicaURLs(cfg.Storage.PostgresReplicaURLs),
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	if err := postgres.Migrate(ctx, cm.Primary()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Redis is optional; without it reads go straight to Postgres.
	var redisClient *redis.Client
	if cfg.Storage.CacheEnabled && cfg.Storage.RedisURL != "" {
		redisClient, err = postgres.NewRedisClient(cfg.Storage)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, running without cache")
			redisClient = nil
		}
	}

	// Metrics
	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Services
	var service subscribers.Service = subscribers.NewPostgresService(cm.Primary())
	if redisClient != nil {
		service = subscribers.NewCachedServiceWithConfig(service, redisClient, subscribers.CacheConfig{
			SubscriberTTL: cfg.Storage.CacheTTL["subscriber"],
			PackageTTL:    cfg.Storage.CacheTTL["package"],
			PolicyEntries: cfg.Storage.PolicyCacheSize,
			Metrics:       metrics,
		})
	}

	engine := payments.NewEngine(payments.NewPostgresStore(cm.Primary()), logger, metrics)

	source := connectivity.NewPostgresSource(cm.Replica())
	watcher := connectivity.NewManager(source, logger, metrics)
	watcher.SetDelays(cfg.Connectivity.BaseDelay, cfg.Connectivity.MaxDelay)

	profiles := radius.DefaultProfiles()
	if cfg.Radius.ProfilesPath != "" {
		profiles, err = radius.LoadProfiles(cfg.Radius.ProfilesPath)
		if err != nil {
			return fmt.Errorf("load nas profiles: %w", err)
		}
	}

	server := api.NewServer(api.Deps{
		Subscribers: service,
		Payments:    engine,
		Source:      source,
		Watcher:     watcher,
		Profiles:    profiles,
		Logger:      logger,
		Metrics:     metrics,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes.
	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(cm.Primary(), redisClient, version)
	observability.RegisterHealthRoutes(healthMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	// Background DB upkeep: replica health and pool gauges.
	cm.StartHealthCheckRoutine(ctx, 30*time.Second)
	if metrics != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					cm.CollectMetrics(metrics)
				}
			}
		}()
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc("pollers", func(context.Context) error {
		watcher.StopAll()
		return nil
	})
	shutdown.RegisterShutdownFunc("health-server", healthServer.Shutdown)
	shutdown.RegisterShutdownFunc("postgres", func(context.Context) error {
		return cm.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("api server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("api server failed")
			cancel()
		}
	}()

	return shutdown.WaitForShutdown()
}
