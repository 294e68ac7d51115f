// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/openboard-dev/openboard/pkg/contextkeys"
//   ctx = contextkeys.WithActorID(ctx, actorID)
//   actorID, ok := contextkeys.GetActorID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ActorIDKey contains the authenticated actor's id
	// Set by: middleware.ActorMiddleware (pkg/middleware/actor.go)
	// Required by: all workspace-scoped endpoints
	// Type: int64
	ActorIDKey Key = "actor_id"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID (pkg/middleware/requestid.go)
	// Used by: Logger, response headers, distributed tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: middleware.RequestLogging (pkg/middleware/logging.go)
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// Helper functions for type-safe context operations

// WithActorID adds the authenticated actor id to the context
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, ActorIDKey, actorID)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetActorID retrieves the actor id from context
func GetActorID(ctx context.Context) (int64, bool) {
	actorID, ok := ctx.Value(ActorIDKey).(int64)
	return actorID, ok
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
