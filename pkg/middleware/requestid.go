package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openboard-dev/openboard/pkg/contextkeys"
)

// RequestIDHeader is set on every response and honored on requests so callers
// and upstream proxies can correlate logs.
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with a UUID, reusing the caller's id when one
// is supplied.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
