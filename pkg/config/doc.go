// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	EASYISP_HOST="0.0.0.0"
//	EASYISP_PORT="8080"
//	EASYISP_HEALTH_PORT="9090"
//	EASYISP_READ_TIMEOUT="15s"
//	EASYISP_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	EASYISP_POSTGRES_URL="postgres://localhost/easyisp"
//	EASYISP_POSTGRES_REPLICA_URLS="postgres://replica1/easyisp,postgres://replica2/easyisp"
//	EASYISP_POSTGRES_MAX_CONNS="20"
//
// Cache settings:
//
//	EASYISP_CACHE_ENABLED="true"
//	EASYISP_REDIS_URL="redis://localhost:6379"
//	EASYISP_REDIS_POOL_SIZE="10"
//	EASYISP_POLICY_CACHE_SIZE="256"
//
// Connectivity settings:
//
//	EASYISP_POLL_BASE_DELAY="2s"
//	EASYISP_POLL_MAX_DELAY="60s"
//
// Observability settings:
//
//	EASYISP_LOG_LEVEL="info"  # debug, info, warn, error
//	EASYISP_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
