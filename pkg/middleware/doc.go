// Package middleware provides HTTP middleware for actor identity, request
// tracing, logging, panic recovery, and rate limiting.
//
// # Overview
//
// Authentication happens upstream; requests arrive with the caller's identity
// in the X-Actor-ID header. This package turns that header into a typed
// context value, tags every request with a UUID, logs request outcomes, and
// throttles callers per actor.
//
// # Middleware Components
//
// ActorMiddleware: actor identity extraction
//
//	router.Use(middleware.NewActorMiddleware().Handler)
//	// Rejects requests without a valid X-Actor-ID, adds the id to the context
//
// RequestID: request tagging
//
//	router.Use(middleware.RequestID)
//
// Recovery: panic containment
//
//	router.Use(middleware.Recovery(logger))
//
// RequestLogging: structured request logs
//
//	router.Use(middleware.RequestLogging(logger))
//
// RateLimitMiddleware: in-memory token bucket, keyed per actor
//
//	router.Use(middleware.NewRateLimitMiddleware(nil).Handler)
//
// DistributedRateLimitMiddleware: Redis-backed fixed window for multi-instance
// deployments, with in-memory fallback when Redis is unreachable
//
//	router.Use(middleware.NewDistributedRateLimitMiddleware(redisClient, config).Handler)
//
// # Related Packages
//
//   - pkg/contextkeys: context key definitions
//   - pkg/observability: logger used by RequestLogging
package middleware
