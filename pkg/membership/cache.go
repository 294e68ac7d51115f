package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore decorates a Store with a two-tier role cache: an in-process LRU
// and an optional shared Redis layer. Only GetRole is cached; membership
// mutations invalidate the affected entry before delegating results back to
// the caller, so a successful mutation is never followed by a stale read from
// the same process.
type CachedStore struct {
	store Store
	l1    *lru.Cache[string, Role]
	redis *redis.Client
	ttl   time.Duration
}

// cachedNotAMember is stored for negative lookups so repeated denials for
// non-members do not hit the database.
const cachedNotAMember Role = "!none"

// CacheInvalidator is implemented by caching decorators. Flows that create
// memberships without going through the Store mutation methods, like
// invitation acceptance, must invalidate the pair afterwards or a cached
// negative lookup outlives the grant.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, workspaceID, actorID int64)
}

// NewCachedStore creates a caching decorator. redisClient may be nil, in
// which case only the in-process LRU is used.
func NewCachedStore(store Store, size int, redisClient *redis.Client, ttl time.Duration) (*CachedStore, error) {
	l1, err := lru.New[string, Role](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create role cache: %w", err)
	}
	return &CachedStore{
		store: store,
		l1:    l1,
		redis: redisClient,
		ttl:   ttl,
	}, nil
}

func roleCacheKey(workspaceID, actorID int64) string {
	return fmt.Sprintf("role:%d:%d", workspaceID, actorID)
}

// GetRole returns the cached role when present, falling back to the
// underlying store. Negative results (ErrNotAMember) are cached too.
func (c *CachedStore) GetRole(ctx context.Context, workspaceID, actorID int64) (Role, error) {
	key := roleCacheKey(workspaceID, actorID)

	if role, ok := c.l1.Get(key); ok {
		if role == cachedNotAMember {
			return "", ErrNotAMember
		}
		return role, nil
	}

	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
			role := Role(cached)
			c.l1.Add(key, role)
			if role == cachedNotAMember {
				return "", ErrNotAMember
			}
			return role, nil
		}
	}

	role, err := c.store.GetRole(ctx, workspaceID, actorID)
	switch {
	case err == nil:
		c.set(ctx, key, role)
		return role, nil
	case err == ErrNotAMember:
		c.set(ctx, key, cachedNotAMember)
		return "", ErrNotAMember
	default:
		return "", err
	}
}

func (c *CachedStore) set(ctx context.Context, key string, role Role) {
	c.l1.Add(key, role)
	if c.redis != nil {
		c.redis.Set(ctx, key, string(role), c.ttl)
	}
}

// Invalidate drops the cached role for one (workspace, actor) pair.
func (c *CachedStore) Invalidate(ctx context.Context, workspaceID, actorID int64) {
	key := roleCacheKey(workspaceID, actorID)
	c.l1.Remove(key)
	if c.redis != nil {
		c.redis.Del(ctx, key)
	}
}

// ListMembers is a passthrough; member lists are not cached.
func (c *CachedStore) ListMembers(ctx context.Context, workspaceID int64) ([]*Membership, error) {
	return c.store.ListMembers(ctx, workspaceID)
}

// Add creates the membership and invalidates the entry for the pair, which
// may hold a cached negative result.
func (c *CachedStore) Add(ctx context.Context, m *Membership) error {
	if err := c.store.Add(ctx, m); err != nil {
		return err
	}
	c.Invalidate(ctx, m.WorkspaceID, m.ActorID)
	return nil
}

// SetRole updates the role and invalidates the cached entry.
func (c *CachedStore) SetRole(ctx context.Context, workspaceID, actorID int64, role Role) error {
	if err := c.store.SetRole(ctx, workspaceID, actorID, role); err != nil {
		return err
	}
	c.Invalidate(ctx, workspaceID, actorID)
	return nil
}

// Remove deletes the membership and invalidates the cached entry.
func (c *CachedStore) Remove(ctx context.Context, workspaceID, actorID int64) error {
	if err := c.store.Remove(ctx, workspaceID, actorID); err != nil {
		return err
	}
	c.Invalidate(ctx, workspaceID, actorID)
	return nil
}
