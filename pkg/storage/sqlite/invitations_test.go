package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
)

func TestInvitationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	inv := &membership.Invitation{
		WorkspaceID: ws.ID,
		Email:       "new@example.com",
		Role:        membership.RoleMember,
		Token:       "tok-1",
		InvitedBy:   100,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.CreateInvitation(ctx, inv))
	assert.NotZero(t, inv.ID)

	got, err := store.GetInvitation(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, got.Role)
	assert.Nil(t, got.AcceptedAt)

	pending, err := store.ListInvitations(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	accepted, err := store.AcceptInvitation(ctx, "tok-1", 200)
	require.NoError(t, err)
	require.NotNil(t, accepted.AcceptedAt)
	require.NotNil(t, accepted.AcceptedBy)
	assert.Equal(t, int64(200), *accepted.AcceptedBy)

	role, err := store.GetRole(ctx, ws.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, role)

	// Accepted invitations are no longer pending and cannot be redeemed twice.
	pending, err = store.ListInvitations(ctx, ws.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = store.AcceptInvitation(ctx, "tok-1", 201)
	assert.ErrorIs(t, err, membership.ErrInvitationExpired)
}

func TestAcceptInvitationErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	_, err = store.AcceptInvitation(ctx, "missing", 200)
	assert.ErrorIs(t, err, membership.ErrInvitationNotFound)

	expired := &membership.Invitation{
		WorkspaceID: ws.ID,
		Email:       "late@example.com",
		Role:        membership.RoleGuest,
		Token:       "tok-expired",
		InvitedBy:   100,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateInvitation(ctx, expired))
	_, err = store.AcceptInvitation(ctx, "tok-expired", 200)
	assert.ErrorIs(t, err, membership.ErrInvitationExpired)

	// The workspace creator is already a member.
	dup := &membership.Invitation{
		WorkspaceID: ws.ID,
		Email:       "owner@example.com",
		Role:        membership.RoleMember,
		Token:       "tok-dup",
		InvitedBy:   100,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.CreateInvitation(ctx, dup))
	_, err = store.AcceptInvitation(ctx, "tok-dup", 100)
	assert.ErrorIs(t, err, membership.ErrAlreadyMember)
}

func TestDeleteExpiredInvitations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := &hierarchy.Resource{Name: "acme"}
	_, _, err := store.CreateWorkspace(ctx, ws, 100)
	require.NoError(t, err)

	for i, exp := range []time.Time{
		time.Now().Add(-time.Hour),
		time.Now().Add(time.Hour),
	} {
		inv := &membership.Invitation{
			WorkspaceID: ws.ID,
			Email:       "x@example.com",
			Role:        membership.RoleGuest,
			Token:       string(rune('a' + i)),
			InvitedBy:   100,
			ExpiresAt:   exp,
		}
		require.NoError(t, store.CreateInvitation(ctx, inv))
	}

	deleted, err := store.DeleteExpiredInvitations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// The live invitation survives.
	_, err = store.GetInvitation(ctx, "b")
	require.NoError(t, err)
}
