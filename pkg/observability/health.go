package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker probes the SQL backend and the optional redis cache. The
// database is required: losing it fails readiness. Redis only degrades the
// service, since the membership cache and the distributed rate limiter fall
// back to in-process behavior without it.
type HealthChecker struct {
	db    *sql.DB
	redis *redis.Client
}

// NewHealthChecker creates a checker. redis may be nil for deployments
// running without a cache tier.
func NewHealthChecker(db *sql.DB, redis *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, redis: redis}
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthStatus aggregates the dependency probes.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Check runs every probe and folds the results into one status.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusHealthy,
		Service:   "openboard",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult),
	}

	if h.db != nil {
		check := h.checkDatabase(ctx)
		status.Checks["database"] = check
		if check.Status != StatusHealthy {
			status.Status = check.Status
		}
	}

	if h.redis != nil {
		check := h.checkRedis(ctx)
		status.Checks["redis"] = check
		if check.Status == StatusUnhealthy && status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	err := h.db.PingContext(ctx)
	if err == nil {
		var one int
		err = h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}
	result := CheckResult{Status: StatusHealthy, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}

	stats := h.db.Stats()
	if stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
		result.Status = StatusDegraded
		result.Error = "connection pool exhausted"
	}
	return result
}

func (h *HealthChecker) checkRedis(ctx context.Context) CheckResult {
	start := time.Now()
	err := h.redis.Ping(ctx).Err()
	result := CheckResult{Status: StatusHealthy, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}

// Liveness answers 200 whenever the process is serving.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"service":   "openboard",
		"timestamp": time.Now(),
	})
}

// Readiness answers 503 when unhealthy. Degraded still reports 200 so the
// instance keeps taking traffic on its fallbacks.
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// RegisterHealthRoutes mounts the probe endpoints on the side-port mux.
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
