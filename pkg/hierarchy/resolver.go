package hierarchy

import (
	"context"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// maxChainDepth bounds chain walks. The schema only nests four levels deep
// (workspace → board → task → comment); anything past this indicates a
// parent-reference cycle from corrupted data.
const maxChainDepth = 16

// Resolver resolves ancestor chains. Resolved chains are held in an LRU cache
// and concurrent resolutions of the same resource are collapsed into a single
// store round trip.
type Resolver struct {
	store ResourceStore
	cache *lru.Cache[int64, Chain]
	group singleflight.Group
}

// NewResolver creates a resolver with a chain cache of the given size.
func NewResolver(store ResourceStore, cacheSize int) (*Resolver, error) {
	cache, err := lru.New[int64, Chain](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain cache: %w", err)
	}
	return &Resolver{store: store, cache: cache}, nil
}

// ResolveChain resolves the ordered chain [resource, parent, ..., workspace]
// for the given resource. A type mismatch between the requested type and the
// stored row resolves to ErrNotFound, as does any missing link in the chain.
func (r *Resolver) ResolveChain(ctx context.Context, typ ResourceType, id int64) (Chain, error) {
	chain, err := r.ResolveChainByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if chain.Leaf().Type != typ {
		return nil, ErrNotFound
	}
	return chain, nil
}

// ResolveChainByID resolves a chain without asserting the leaf's type. Used
// when the caller only holds an id, e.g. the declared parent of a create.
func (r *Resolver) ResolveChainByID(ctx context.Context, id int64) (Chain, error) {
	if chain, ok := r.cache.Get(id); ok {
		return chain, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		chain, err := r.walk(ctx, id)
		if err != nil {
			return nil, err
		}
		r.cache.Add(id, chain)
		return chain, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Chain), nil
}

// walk loads the terminal row and follows parent links to the workspace.
func (r *Resolver) walk(ctx context.Context, id int64) (Chain, error) {
	res, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chain := Chain{res}
	cur := res
	for cur.Type != TypeWorkspace {
		if len(chain) >= maxChainDepth {
			return nil, ErrNotFound
		}
		if cur.ParentID == nil {
			// Non-workspace resource without a parent: broken integrity.
			return nil, ErrNotFound
		}
		parent, err := r.store.Get(ctx, *cur.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		cur = parent
	}

	// The denormalized workspace id on the leaf must agree with the walked
	// terminal; a mismatch means the chain was mutated mid-walk or the data
	// is corrupt, and the chain must not be used for authorization.
	if res.WorkspaceID != cur.ID {
		return nil, ErrNotFound
	}

	return chain, nil
}

// Invalidate drops any cached chain for the resource.
func (r *Resolver) Invalidate(id int64) {
	r.cache.Remove(id)
}

// Reset drops every cached chain. Used after re-parenting, where the set of
// descendant chains that changed cannot be enumerated from the cache.
func (r *Resolver) Reset() {
	r.cache.Purge()
}
