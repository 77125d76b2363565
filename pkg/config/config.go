package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Connectivity poller configuration
	Connectivity ConnectivityConfig

	// Radius encoding configuration
	Radius RadiusConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// ConnectivityConfig holds status poller settings
type ConnectivityConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// RadiusConfig holds rate-limit encoding settings
type RadiusConfig struct {
	// ProfilesPath points at an optional YAML file of vendor profiles.
	// Empty means the built-in profiles.
	ProfilesPath string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Connectivity:  loadConnectivityConfig(),
		Radius:        loadRadiusConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("EASYISP_HOST", "0.0.0.0"),
		Port:            getEnv("EASYISP_PORT", "8080"),
		ReadTimeout:     getEnvDuration("EASYISP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("EASYISP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("EASYISP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("EASYISP_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("EASYISP_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if pgURL := getEnv("EASYISP_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if replicaURLs := getEnv("EASYISP_POSTGRES_REPLICA_URLS", ""); replicaURLs != "" {
		cfg.PostgresReplicaURLs = replicaURLs
	}
	if maxConns := getEnvInt("EASYISP_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("EASYISP_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("EASYISP_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	if redisURL := getEnv("EASYISP_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("EASYISP_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("EASYISP_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("EASYISP_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("EASYISP_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	if cacheEnabled := getEnv("EASYISP_CACHE_ENABLED", ""); cacheEnabled != "" {
		cfg.CacheEnabled = strings.ToLower(cacheEnabled) == "true"
	}
	if policyCacheSize := getEnvInt("EASYISP_POLICY_CACHE_SIZE", 0); policyCacheSize > 0 {
		cfg.PolicyCacheSize = policyCacheSize
	}

	return cfg
}

// loadConnectivityConfig loads status poller configuration from environment
func loadConnectivityConfig() ConnectivityConfig {
	return ConnectivityConfig{
		BaseDelay: getEnvDuration("EASYISP_POLL_BASE_DELAY", 2*time.Second),
		MaxDelay:  getEnvDuration("EASYISP_POLL_MAX_DELAY", 60*time.Second),
	}
}

// loadRadiusConfig loads rate-limit encoding configuration from environment
func loadRadiusConfig() RadiusConfig {
	return RadiusConfig{
		ProfilesPath: getEnv("EASYISP_RADIUS_PROFILES", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(strings.ToLower(getEnv("EASYISP_LOG_LEVEL", "info"))),
		MetricsEnabled: getEnvBool("EASYISP_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Connectivity.BaseDelay <= 0 {
		return fmt.Errorf("poll base delay must be positive")
	}
	if c.Connectivity.MaxDelay < c.Connectivity.BaseDelay {
		return fmt.Errorf("poll max delay must be at least the base delay")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
