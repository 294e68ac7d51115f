package hierarchy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResourceStore serves resources from a map and counts Get calls.
type fakeResourceStore struct {
	mu        sync.Mutex
	resources map[int64]*Resource
	gets      int
}

func newFakeResourceStore(resources ...*Resource) *fakeResourceStore {
	store := &fakeResourceStore{resources: make(map[int64]*Resource)}
	for _, r := range resources {
		store.resources[r.ID] = r
	}
	return store
}

func (f *fakeResourceStore) Get(ctx context.Context, id int64) (*Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	res, ok := f.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

func (f *fakeResourceStore) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func ptr(v int64) *int64 { return &v }

func testTree() *fakeResourceStore {
	return newFakeResourceStore(
		&Resource{ID: 1, Type: TypeWorkspace, WorkspaceID: 1, Name: "acme"},
		&Resource{ID: 2, Type: TypeBoard, ParentID: ptr(1), WorkspaceID: 1, Name: "launch"},
		&Resource{ID: 3, Type: TypeTask, ParentID: ptr(2), WorkspaceID: 1, AuthorID: 7, Name: "ship it"},
		&Resource{ID: 4, Type: TypeComment, ParentID: ptr(3), WorkspaceID: 1, AuthorID: 9},
	)
}

func TestResolveChain(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves ordered chain to workspace", func(t *testing.T) {
		resolver, err := NewResolver(testTree(), 16)
		require.NoError(t, err)

		chain, err := resolver.ResolveChain(ctx, TypeComment, 4)
		require.NoError(t, err)
		require.Len(t, chain, 4)
		assert.Equal(t, int64(4), chain.Leaf().ID)
		assert.Equal(t, TypeTask, chain[1].Type)
		assert.Equal(t, TypeBoard, chain[2].Type)
		assert.Equal(t, int64(1), chain.Workspace().ID)
	})

	t.Run("workspace resolves to single-element chain", func(t *testing.T) {
		resolver, err := NewResolver(testTree(), 16)
		require.NoError(t, err)

		chain, err := resolver.ResolveChain(ctx, TypeWorkspace, 1)
		require.NoError(t, err)
		require.Len(t, chain, 1)
		assert.Equal(t, chain.Leaf(), chain.Workspace())
	})

	t.Run("missing resource", func(t *testing.T) {
		resolver, err := NewResolver(testTree(), 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeTask, 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("type mismatch hides the resource", func(t *testing.T) {
		resolver, err := NewResolver(testTree(), 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeBoard, 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("orphaned parent reference", func(t *testing.T) {
		// Task 3's board was deleted out from under it.
		store := testTree()
		delete(store.resources, 2)
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeTask, 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nil parent on non-workspace", func(t *testing.T) {
		store := newFakeResourceStore(
			&Resource{ID: 5, Type: TypeBoard, ParentID: nil, WorkspaceID: 1},
		)
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeBoard, 5)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("parent cycle terminates", func(t *testing.T) {
		store := newFakeResourceStore(
			&Resource{ID: 10, Type: TypeBoard, ParentID: ptr(11), WorkspaceID: 1},
			&Resource{ID: 11, Type: TypeBoard, ParentID: ptr(10), WorkspaceID: 1},
		)
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeBoard, 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("workspace id mismatch rejected", func(t *testing.T) {
		store := newFakeResourceStore(
			&Resource{ID: 1, Type: TypeWorkspace, WorkspaceID: 1},
			&Resource{ID: 2, Type: TypeBoard, ParentID: ptr(1), WorkspaceID: 42},
		)
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeBoard, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestResolverCache(t *testing.T) {
	ctx := context.Background()

	t.Run("repeat resolutions served from cache", func(t *testing.T) {
		store := testTree()
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeComment, 4)
		require.NoError(t, err)
		fetched := store.getCount()

		_, err = resolver.ResolveChain(ctx, TypeComment, 4)
		require.NoError(t, err)
		assert.Equal(t, fetched, store.getCount())
	})

	t.Run("invalidate forces refetch", func(t *testing.T) {
		store := testTree()
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		_, err = resolver.ResolveChain(ctx, TypeTask, 3)
		require.NoError(t, err)
		fetched := store.getCount()

		resolver.Invalidate(3)

		_, err = resolver.ResolveChain(ctx, TypeTask, 3)
		require.NoError(t, err)
		assert.Greater(t, store.getCount(), fetched)
	})

	t.Run("concurrent resolutions collapse", func(t *testing.T) {
		store := testTree()
		resolver, err := NewResolver(store, 16)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				chain, err := resolver.ResolveChain(ctx, TypeComment, 4)
				assert.NoError(t, err)
				assert.Len(t, chain, 4)
			}()
		}
		wg.Wait()

		// A full walk of comment 4 is four Gets; singleflight should keep the
		// total well under eight full walks.
		assert.LessOrEqual(t, store.getCount(), 8)
	})
}

func TestResourceSnapshot(t *testing.T) {
	res := &Resource{
		ID:          3,
		Type:        TypeTask,
		ParentID:    ptr(2),
		WorkspaceID: 1,
		AuthorID:    7,
		Name:        "ship it",
		Fields:      map[string]any{"status_id": float64(12)},
	}

	data, err := res.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "task",
		"parent_id": 2,
		"workspace_id": 1,
		"author_id": 7,
		"name": "ship it",
		"fields": {"status_id": 12}
	}`, string(data))
}
