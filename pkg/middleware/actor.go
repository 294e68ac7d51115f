package middleware

import (
	"net/http"
	"strconv"

	"github.com/openboard-dev/openboard/pkg/contextkeys"
)

// ActorIDHeader carries the authenticated caller's id. The identity layer in
// front of this service validates credentials and sets the header; requests
// reaching the router without it are rejected.
const ActorIDHeader = "X-Actor-ID"

// ActorMiddleware extracts the actor id from the request.
type ActorMiddleware struct {
	optional bool // If true, allow requests without an actor
}

// NewActorMiddleware creates actor extraction middleware.
func NewActorMiddleware() *ActorMiddleware {
	return &ActorMiddleware{}
}

// NewOptionalActorMiddleware creates actor extraction middleware that lets
// anonymous requests through. Used on public endpoints like health checks.
func NewOptionalActorMiddleware() *ActorMiddleware {
	return &ActorMiddleware{optional: true}
}

// Handler wraps an HTTP handler with actor extraction.
func (m *ActorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(ActorIDHeader)
		if header == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			unauthorizedResponse(w, "missing "+ActorIDHeader+" header")
			return
		}

		actorID, err := strconv.ParseInt(header, 10, 64)
		if err != nil || actorID <= 0 {
			unauthorizedResponse(w, "invalid "+ActorIDHeader+" header")
			return
		}

		ctx := contextkeys.WithActorID(r.Context(), actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActorID extracts the actor id from the request context.
func GetActorID(r *http.Request) (int64, bool) {
	return contextkeys.GetActorID(r.Context())
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
