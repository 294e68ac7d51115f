package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
)

// DistributedRateLimiter implements a fixed-window rate limit in Redis so the
// limit is shared across all instances behind the same load balancer.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter.
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = PerActorRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed for the given key. The count and its
// expiry are set in one pipeline so a crashed instance cannot leave an
// immortal counter behind.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rl.key(key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	limit := int64(rl.config.RequestsPerWindow + rl.config.BurstSize)
	return incr.Val() <= limit, nil
}

// Remaining returns the number of requests left in the current window.
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := rl.redis.Get(ctx, rl.key(key)).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow + rl.config.BurstSize, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := rl.config.RequestsPerWindow + rl.config.BurstSize - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the counter for a key.
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.key(key)).Err()
}

func (rl *DistributedRateLimiter) key(key string) string {
	return rl.prefix + ":" + key
}

// DistributedRateLimitMiddleware provides Redis-backed HTTP rate limiting
// keyed by actor. When Redis is unreachable it falls back to the in-memory
// limiter rather than failing requests.
type DistributedRateLimitMiddleware struct {
	redis    *redis.Client
	limiter  *DistributedRateLimiter
	fallback *RateLimitMiddleware
}

// NewDistributedRateLimitMiddleware creates the middleware. A nil config uses
// the default per-actor limits; the same config drives the in-memory fallback
// so the limit survives a Redis outage unchanged.
func NewDistributedRateLimitMiddleware(redisClient *redis.Client, config *RateLimitConfig) *DistributedRateLimitMiddleware {
	if config == nil {
		config = PerActorRateLimitConfig()
	}
	return &DistributedRateLimitMiddleware{
		redis:    redisClient,
		limiter:  NewDistributedRateLimiter(redisClient, config, "ratelimit"),
		fallback: NewRateLimitMiddleware(config),
	}
}

// Handler wraps an HTTP handler with distributed rate limiting.
func (m *DistributedRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _ := m.fallback.keyFor(r)
		ctx := r.Context()

		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			m.fallback.Handler(next).ServeHTTP(w, r)
			return
		}
		if !allowed {
			retryAfter := m.limiter.config.WindowDuration.Seconds()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","retry_after":` + fmt.Sprintf("%.0f", retryAfter) + `}`))
			return
		}

		if remaining, err := m.limiter.Remaining(ctx, key); err == nil {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", m.limiter.config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		}

		next.ServeHTTP(w, r)
	})
}

// HealthCheck verifies the Redis connection backing the limiter.
func (m *DistributedRateLimitMiddleware) HealthCheck(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}
