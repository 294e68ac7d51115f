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
//	OPENBOARD_HOST="0.0.0.0"
//	OPENBOARD_PORT="8080"
//	OPENBOARD_HEALTH_PORT="9090"
//	OPENBOARD_READ_TIMEOUT="15s"
//	OPENBOARD_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	OPENBOARD_STORAGE_TYPE="postgres"  # postgres, sqlite
//	OPENBOARD_POSTGRES_URL="postgres://localhost/openboard"
//	OPENBOARD_POSTGRES_MAX_CONNS="25"
//	OPENBOARD_SQLITE_PATH="openboard.db"
//
// Cache settings:
//
//	OPENBOARD_REDIS_URL="redis://localhost:6379"
//	OPENBOARD_MEMBERSHIP_CACHE_SIZE="4096"
//	OPENBOARD_MEMBERSHIP_CACHE_TTL="30s"
//	OPENBOARD_RESOLVER_CACHE_SIZE="8192"
//
// Policy settings:
//
//	OPENBOARD_POLICY_PATH="/etc/openboard/policy.yaml"
//	OPENBOARD_POLICY_RELOAD="true"
//
// Observability settings:
//
//	OPENBOARD_LOG_LEVEL="info"  # debug, info, warn, error
//	OPENBOARD_METRICS_ENABLED="true"
//	OPENBOARD_OTEL_ENABLED="true"
//	OPENBOARD_OTEL_ENDPOINT="otel-collector:4317"
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
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Storage: %s\n", cfg.Storage.Type)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
