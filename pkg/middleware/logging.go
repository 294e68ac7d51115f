package middleware

import (
	"net/http"
	"time"

	"github.com/openboard-dev/openboard/pkg/contextkeys"
	"github.com/openboard-dev/openboard/pkg/observability"
)

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogging logs one line per request with method, path, status, and
// duration. The request-scoped logger is placed on the context for handlers
// that need to log with the same correlation fields.
func RequestLogging(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			requestLogger := logger.WithFields(map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			if requestID := contextkeys.GetRequestID(r.Context()); requestID != "" {
				requestLogger = requestLogger.WithField("request_id", requestID)
			}
			if actorID, ok := contextkeys.GetActorID(r.Context()); ok {
				requestLogger = requestLogger.WithActor(actorID)
			}

			ctx := contextkeys.WithLogger(r.Context(), requestLogger)
			next.ServeHTTP(recorder, r.WithContext(ctx))

			requestLogger.WithFields(map[string]interface{}{
				"status":      recorder.status,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("request completed")
		})
	}
}
