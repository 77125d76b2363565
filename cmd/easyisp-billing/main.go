package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/derrickgolden/easyisp-engine/pkg/jobs"
	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
	"github.com/derrickgolden/easyisp-engine/pkg/storage"
	"github.com/derrickgolden/easyisp-engine/pkg/storage/postgres"
	"github.com/derrickgolden/easyisp-engine/pkg/subscribers"
)

var (
	dbURL           = flag.String("db-url", getEnv("EASYISP_POSTGRES_URL", "postgres://localhost/easyisp?sslmode=disable"), "PostgreSQL connection URL")
	redisURL        = flag.String("redis-url", getEnv("EASYISP_REDIS_URL", ""), "Redis URL for cache invalidation (optional)")
	sweepSchedule   = flag.String("sweep-schedule", "*/10 * * * *", "Cron schedule for the expiry sweep (default: every 10 minutes)")
	revenueSchedule = flag.String("revenue-schedule", "5 0 * * *", "Cron schedule for the daily revenue rollup (default: 00:05 UTC)")
	monitorSchedule = flag.String("monitor-schedule", "* * * * *", "Cron schedule for the pending-queue gauge refresh (default: every minute)")
	runOnce         = flag.Bool("run-once", false, "Run the sweep and rollup once and exit")
	rollupDate      = flag.String("date", "", "Day to roll up (YYYY-MM-DD). If empty, rolls up yesterday. Only used with --run-once")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	service := subscribers.NewPostgresService(db)

	// With Redis configured the sweep also evicts stale cache entries so
	// suspended subscribers drop out of the API immediately.
	var invalidator jobs.Invalidator
	if *redisURL != "" {
		storCfg := storage.DefaultConfig()
		storCfg.RedisURL = *redisURL
		client, err := postgres.NewRedisClient(storCfg)
		if err != nil {
			log.Warnf("Redis unavailable, sweeping without cache invalidation: %v", err)
		} else {
			defer client.Close()
			invalidator = subscribers.NewCachedService(service, client)
		}
	}

	engineLogger := observability.NewLogger(observability.InfoLevel, os.Stdout)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	engine := payments.NewEngine(payments.NewPostgresStore(db), engineLogger, metrics)

	sweeper := jobs.NewSweeper(service, invalidator, metrics, log)
	rollup := jobs.NewRevenueRollup(db, log)
	monitor := jobs.NewQueueMonitor(engine, metrics, log)

	if *runOnce {
		day := time.Now().UTC().AddDate(0, 0, -1)
		if *rollupDate != "" {
			day, err = time.Parse("2006-01-02", *rollupDate)
			if err != nil {
				log.Fatalf("Invalid date format: %v", err)
			}
		}

		ctx := context.Background()
		count, err := sweeper.Run(ctx, time.Now())
		if err != nil {
			log.Fatalf("Expiry sweep failed: %v", err)
		}
		log.Infof("Expiry sweep complete: %d subscribers expired", count)

		if err := rollup.RollupDay(ctx, day); err != nil {
			log.Fatalf("Revenue rollup failed: %v", err)
		}
		log.Infof("Revenue rollup complete for %s", day.Format("2006-01-02"))
		return
	}

	c := cron.New()

	if _, err := c.AddFunc(*sweepSchedule, func() {
		if _, err := sweeper.Run(context.Background(), time.Now()); err != nil {
			log.Errorf("Expiry sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule expiry sweep: %v", err)
	}

	if _, err := c.AddFunc(*revenueSchedule, func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := rollup.RollupDay(context.Background(), yesterday); err != nil {
			log.Errorf("Revenue rollup failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule revenue rollup: %v", err)
	}

	if _, err := c.AddFunc(*monitorSchedule, func() {
		if err := monitor.Refresh(context.Background()); err != nil {
			log.Errorf("Queue monitor refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule queue monitor: %v", err)
	}

	c.Start()
	log.Info("EasyISP billing worker started")
	log.Infof("Expiry sweep schedule: %s", *sweepSchedule)
	log.Infof("Revenue rollup schedule: %s", *revenueSchedule)
	log.Infof("Queue monitor schedule: %s", *monitorSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Shutting down gracefully...")

	ctx := c.Stop()
	<-ctx.Done()

	log.Info("Billing worker stopped")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
