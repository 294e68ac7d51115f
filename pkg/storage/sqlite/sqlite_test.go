package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestWorkspaceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	rev, member, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	assert.Equal(t, ws.ID, ws.WorkspaceID, "workspace is its own root")
	assert.Equal(t, int64(1), rev.Version)
	assert.Equal(t, membership.RoleOwner, member.Role)

	role, err := store.GetRole(ctx, ws.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, membership.RoleOwner, role)

	got, err := store.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, hierarchy.TypeWorkspace, got.Type)
	assert.Nil(t, got.ParentID)
}

func TestResourceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	board := &hierarchy.Resource{
		Type: hierarchy.TypeBoard, ParentID: &ws.ID, WorkspaceID: ws.ID,
		AuthorID: 100, Name: "launch",
	}
	rev, err := store.CreateWithRevision(ctx, board, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev.Version)

	// Update bumps the version and preserves unmentioned fields.
	updated, rev2, err := store.UpdateWithRevision(ctx, board.ID, func(r *hierarchy.Resource) {
		r.Name = "launch v2"
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		r.Fields["color"] = "red"
	}, 100)
	require.NoError(t, err)
	assert.Equal(t, "launch v2", updated.Name)
	assert.Equal(t, int64(2), rev2.Version)

	latest, err := store.LatestVersion(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest)

	// History pages descending and snapshots decode.
	page, err := store.Page(ctx, board.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].Version)
	fields, err := page[0].DecodeSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "launch v2", fields["name"])

	// Delete keeps history.
	require.NoError(t, store.Delete(ctx, board.ID))
	_, err = store.Get(ctx, board.ID)
	assert.ErrorIs(t, err, hierarchy.ErrNotFound)
	latest, err = store.LatestVersion(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest)
}

func TestCreateUnderMissingParent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	missing := int64(999)
	task := &hierarchy.Resource{
		Type: hierarchy.TypeTask, ParentID: &missing, WorkspaceID: 1, AuthorID: 100,
	}
	_, err := store.CreateWithRevision(ctx, task, 100)
	assert.ErrorIs(t, err, hierarchy.ErrNotFound)
}

func TestMoveRehomesSubtree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	wsA := &hierarchy.Resource{Name: "a"}
	_, _, err := store.CreateWorkspace(ctx, wsA, 100)
	require.NoError(t, err)
	wsB := &hierarchy.Resource{Name: "b"}
	_, _, err = store.CreateWorkspace(ctx, wsB, 100)
	require.NoError(t, err)

	board := &hierarchy.Resource{Type: hierarchy.TypeBoard, ParentID: &wsA.ID, WorkspaceID: wsA.ID, AuthorID: 100, Name: "launch"}
	_, err = store.CreateWithRevision(ctx, board, 100)
	require.NoError(t, err)
	task := &hierarchy.Resource{Type: hierarchy.TypeTask, ParentID: &board.ID, WorkspaceID: wsA.ID, AuthorID: 100, Name: "ship"}
	_, err = store.CreateWithRevision(ctx, task, 100)
	require.NoError(t, err)

	moved, rev, err := store.MoveWithRevision(ctx, board.ID, wsB.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, wsB.ID, moved.WorkspaceID)
	assert.Equal(t, int64(2), rev.Version)

	// The descendant task followed.
	gotTask, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, wsB.ID, gotTask.WorkspaceID)

	// Moving onto a vanished destination fails closed.
	_, _, err = store.MoveWithRevision(ctx, board.ID, 12345, 100)
	assert.ErrorIs(t, err, hierarchy.ErrNotFound)
}

func TestMembershipGuards(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	// Duplicate add.
	err = store.Add(ctx, &membership.Membership{WorkspaceID: ws.ID, ActorID: 100, Role: membership.RoleGuest})
	assert.ErrorIs(t, err, membership.ErrAlreadyMember)

	// Sole owner cannot demote or leave.
	err = store.SetRole(ctx, ws.ID, 100, membership.RoleMember)
	assert.ErrorIs(t, err, membership.ErrLastOwner)
	err = store.Remove(ctx, ws.ID, 100)
	assert.ErrorIs(t, err, membership.ErrLastOwner)

	// With a second owner both succeed.
	require.NoError(t, store.Add(ctx, &membership.Membership{WorkspaceID: ws.ID, ActorID: 101, Role: membership.RoleOwner}))
	require.NoError(t, store.SetRole(ctx, ws.ID, 100, membership.RoleMember))

	role, err := store.GetRole(ctx, ws.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, role)

	members, err := store.ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestCascadingDeleteOfMemberships(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ws.ID))

	_, err = store.GetRole(ctx, ws.ID, 100)
	assert.ErrorIs(t, err, membership.ErrNotAMember)
}

func TestRecordContinuesFromExistingHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	rev, err := store.Record(ctx, ws.ID, 101, []byte(`{"name":"renamed"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev.Version)
	assert.Equal(t, int64(101), rev.ActorID)

	page, err := store.Page(ctx, ws.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []int64{2, 1}, []int64{page[0].Version, page[1].Version})
}
