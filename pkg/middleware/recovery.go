package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/openboard-dev/openboard/pkg/httputil"
	"github.com/openboard-dev/openboard/pkg/observability"
)

// Recovery converts handler panics into 500 responses instead of killing the
// connection. The panic value and stack are logged, never sent to the client.
func Recovery(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithFields(map[string]interface{}{
						"panic":  rec,
						"stack":  string(debug.Stack()),
						"method": r.Method,
						"path":   r.URL.Path,
					}).Error("panic while handling request")
					httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
