package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openboard-dev/openboard/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage StorageConfig

	// Cache configuration (membership roles and chain resolution)
	Cache CacheConfig

	// Authorization policy configuration
	Policy PolicyConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Invitation lifecycle configuration
	Invitations InvitationConfig

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

// StorageConfig selects and configures the backing store
type StorageConfig struct {
	// Type is "postgres" or "sqlite"
	Type string

	// PostgreSQL
	PostgresURL         string
	PostgresReplicaURLs string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration

	// SQLite
	SQLitePath string
}

// CacheConfig holds role-cache and resolver-cache settings
type CacheConfig struct {
	// Redis L2 for membership roles and the distributed rate limiter.
	// Empty RedisURL disables redis; the in-process caches still apply.
	RedisURL      string
	RedisPassword string
	RedisDB       int

	MembershipCacheSize int
	MembershipCacheTTL  time.Duration
	ResolverCacheSize   int
}

// PolicyConfig points at an optional YAML role-table override
type PolicyConfig struct {
	// Path to the policy file. Empty means the built-in table.
	Path string

	// HotReload watches the file and swaps the policy on change.
	HotReload bool
}

// RateLimitConfig holds request throttling settings
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	WindowDuration    time.Duration
	BurstSize         int
}

// InvitationConfig holds invitation lifecycle settings
type InvitationConfig struct {
	TTL time.Duration

	// CleanupSpec is a cron expression for purging expired invitations.
	CleanupSpec string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Cache:         loadCacheConfig(),
		Policy:        loadPolicyConfig(),
		RateLimit:     loadRateLimitConfig(),
		Invitations:   loadInvitationConfig(),
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
		Host:            getEnv("OPENBOARD_HOST", "0.0.0.0"),
		Port:            getEnv("OPENBOARD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("OPENBOARD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("OPENBOARD_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("OPENBOARD_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("OPENBOARD_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("OPENBOARD_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Type:                getEnv("OPENBOARD_STORAGE_TYPE", "sqlite"),
		PostgresURL:         getEnv("OPENBOARD_POSTGRES_URL", ""),
		PostgresReplicaURLs: getEnv("OPENBOARD_POSTGRES_REPLICA_URLS", ""),
		PostgresMaxConns:    getEnvInt("OPENBOARD_POSTGRES_MAX_CONNS", 25),
		PostgresMinConns:    getEnvInt("OPENBOARD_POSTGRES_MIN_CONNS", 5),
		PostgresTimeout:     getEnvDuration("OPENBOARD_POSTGRES_TIMEOUT", 5*time.Second),
		SQLitePath:          getEnv("OPENBOARD_SQLITE_PATH", "openboard.db"),
	}
}

// loadCacheConfig loads cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		RedisURL:            getEnv("OPENBOARD_REDIS_URL", ""),
		RedisPassword:       getEnv("OPENBOARD_REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("OPENBOARD_REDIS_DB", 0),
		MembershipCacheSize: getEnvInt("OPENBOARD_MEMBERSHIP_CACHE_SIZE", 4096),
		MembershipCacheTTL:  getEnvDuration("OPENBOARD_MEMBERSHIP_CACHE_TTL", 30*time.Second),
		ResolverCacheSize:   getEnvInt("OPENBOARD_RESOLVER_CACHE_SIZE", 8192),
	}
}

// loadPolicyConfig loads policy configuration from environment
func loadPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Path:      getEnv("OPENBOARD_POLICY_PATH", ""),
		HotReload: getEnvBool("OPENBOARD_POLICY_RELOAD", true),
	}
}

// loadRateLimitConfig loads rate limit configuration from environment
func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getEnvBool("OPENBOARD_RATE_LIMIT_ENABLED", true),
		RequestsPerWindow: getEnvInt("OPENBOARD_RATE_LIMIT_REQUESTS", 1000),
		WindowDuration:    getEnvDuration("OPENBOARD_RATE_LIMIT_WINDOW", time.Minute),
		BurstSize:         getEnvInt("OPENBOARD_RATE_LIMIT_BURST", 50),
	}
}

// loadInvitationConfig loads invitation configuration from environment
func loadInvitationConfig() InvitationConfig {
	return InvitationConfig{
		TTL:         getEnvDuration("OPENBOARD_INVITATION_TTL", 7*24*time.Hour),
		CleanupSpec: getEnv("OPENBOARD_INVITATION_CLEANUP_SPEC", "@hourly"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("OPENBOARD_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("OPENBOARD_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("OPENBOARD_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OPENBOARD_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("OPENBOARD_OTEL_SERVICE_NAME", "openboard"),
		OTelServiceVersion: getEnv("OPENBOARD_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("OPENBOARD_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be postgres or sqlite)", c.Storage.Type)
	}

	if c.Cache.MembershipCacheSize <= 0 {
		return fmt.Errorf("membership cache size must be positive")
	}
	if c.Cache.ResolverCacheSize <= 0 {
		return fmt.Errorf("resolver cache size must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerWindow <= 0 {
			return fmt.Errorf("rate limit requests per window must be positive")
		}
		if c.RateLimit.WindowDuration <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}

	if c.Invitations.TTL <= 0 {
		return fmt.Errorf("invitation TTL must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// ReplicaURLs splits the comma-separated replica list
func (c *StorageConfig) ReplicaURLs() []string {
	if c.PostgresReplicaURLs == "" {
		return nil
	}
	parts := strings.Split(c.PostgresReplicaURLs, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
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
