// Package observability provides structured logging, Prometheus metrics,
// health checks and graceful shutdown for the billing engine.
//
// # Overview
//
// This package centralizes observability infrastructure: JSON logging over
// slog, the engine's metric set, dependency health probes and the shutdown
// sequence shared by the API server and the billing worker.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("subscriber_id", id).Info("poller started")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ReconciliationsTotal.WithLabelValues("resolved").Inc()
//	metrics.PendingPayments.Set(float64(count))
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	status := checker.Check(ctx)
//
// Postgres failures mark the engine unhealthy; a missing Redis only
// degrades it, since the cache layer is optional.
//
// # Related Packages
//
//   - pkg/config: engine configuration
//   - pkg/httputil: request logging and recovery middleware
package observability
