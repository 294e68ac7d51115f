package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Access control metrics
	AuthzDecisionsTotal *prometheus.CounterVec
	AuthzCheckDuration  *prometheus.HistogramVec

	// Revision metrics
	RevisionWritesTotal     *prometheus.CounterVec
	MutationConflictsTotal  *prometheus.CounterVec
	MutationDuration        *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Redis metrics
	RedisCommandsTotal   *prometheus.CounterVec
	RedisCommandDuration *prometheus.HistogramVec

	// Business metrics
	WorkspacesTotal  prometheus.Gauge
	ResourcesTotal   *prometheus.GaugeVec
	InvitationsOpen  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openboard_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openboard_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Access control metrics
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"action", "outcome"},
		),
		AuthzCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openboard_authz_check_duration_seconds",
				Help:    "End to end authorization check duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
			},
			[]string{"action"},
		),

		// Revision metrics
		RevisionWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_revision_writes_total",
				Help: "Total number of revisions recorded",
			},
			[]string{"resource_type", "operation"},
		),
		MutationConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_mutation_conflicts_total",
				Help: "Total number of optimistic concurrency conflicts",
			},
			[]string{"resource_type"},
		),
		MutationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openboard_mutation_duration_seconds",
				Help:    "Mutation pipeline duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource_type", "operation"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type", "key_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type", "key_type"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "openboard_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "openboard_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "openboard_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "openboard_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		// Redis metrics
		RedisCommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openboard_redis_commands_total",
				Help: "Total number of Redis commands",
			},
			[]string{"command", "status"},
		),
		RedisCommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openboard_redis_command_duration_seconds",
				Help:    "Redis command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"command"},
		),

		// Business metrics
		WorkspacesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "openboard_workspaces_total",
				Help: "Total number of workspaces",
			},
		),
		ResourcesTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "openboard_resources_total",
				Help: "Total number of live resources by type",
			},
			[]string{"resource_type"},
		),
		InvitationsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "openboard_invitations_open",
				Help: "Number of open workspace invitations",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.AuthzDecisionsTotal,
		m.AuthzCheckDuration,
		m.RevisionWritesTotal,
		m.MutationConflictsTotal,
		m.MutationDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.RedisCommandsTotal,
		m.RedisCommandDuration,
		m.WorkspacesTotal,
		m.ResourcesTotal,
		m.InvitationsOpen,
	)

	return m
}

// RecordAuthzDecision counts an authorization outcome ("allow" or "deny").
func (m *Metrics) RecordAuthzDecision(action, outcome string) {
	m.AuthzDecisionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordRevisionWrite counts a committed revision.
func (m *Metrics) RecordRevisionWrite(resourceType, operation string) {
	m.RevisionWritesTotal.WithLabelValues(resourceType, operation).Inc()
}

// RecordMutationConflict counts a lost optimistic version race.
func (m *Metrics) RecordMutationConflict(resourceType string) {
	m.MutationConflictsTotal.WithLabelValues(resourceType).Inc()
}

// RecordCacheHit counts a cache hit.
func (m *Metrics) RecordCacheHit(cacheType, keyType string) {
	m.CacheHitsTotal.WithLabelValues(cacheType, keyType).Inc()
}

// RecordCacheMiss counts a cache miss.
func (m *Metrics) RecordCacheMiss(cacheType, keyType string) {
	m.CacheMissesTotal.WithLabelValues(cacheType, keyType).Inc()
}

// UpdateDBStats exports the connection pool's current stats.
func (m *Metrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
