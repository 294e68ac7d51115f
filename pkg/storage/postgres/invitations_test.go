package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard-dev/openboard/pkg/membership"
)

func newMockInvitationStore(t *testing.T) (*InvitationStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewInvitationStore(db), mock, db
}

func invitationRows(inv *membership.Invitation) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "token", "workspace_id", "email", "role", "invited_by",
		"expires_at", "accepted_at", "accepted_by", "created_at",
	})
	var acceptedAt interface{}
	if inv.AcceptedAt != nil {
		acceptedAt = *inv.AcceptedAt
	}
	var acceptedBy interface{}
	if inv.AcceptedBy != nil {
		acceptedBy = *inv.AcceptedBy
	}
	rows.AddRow(inv.ID, inv.Token, inv.WorkspaceID, inv.Email, string(inv.Role),
		inv.InvitedBy, inv.ExpiresAt, acceptedAt, acceptedBy, inv.CreatedAt)
	return rows
}

func TestCreateInvitation(t *testing.T) {
	store, mock, db := newMockInvitationStore(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	mock.ExpectQuery(`INSERT INTO invitations`).
		WithArgs("tok-1", int64(1), "new@example.com", "member", int64(100), expires).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, time.Now()))

	inv := &membership.Invitation{
		WorkspaceID: 1,
		Email:       "new@example.com",
		Role:        membership.RoleMember,
		Token:       "tok-1",
		InvitedBy:   100,
		ExpiresAt:   expires,
	}
	require.NoError(t, store.CreateInvitation(context.Background(), inv))
	assert.Equal(t, int64(5), inv.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInvitation(t *testing.T) {
	store, mock, db := newMockInvitationStore(t)
	defer db.Close()

	t.Run("found", func(t *testing.T) {
		inv := &membership.Invitation{
			ID: 5, Token: "tok-1", WorkspaceID: 1, Email: "new@example.com",
			Role: membership.RoleMember, InvitedBy: 100,
			ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
		}
		mock.ExpectQuery(`SELECT .+ FROM invitations WHERE token = \$1`).
			WithArgs("tok-1").
			WillReturnRows(invitationRows(inv))

		got, err := store.GetInvitation(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, membership.RoleMember, got.Role)
		assert.Nil(t, got.AcceptedAt)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM invitations WHERE token = \$1`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := store.GetInvitation(context.Background(), "nope")
		assert.ErrorIs(t, err, membership.ErrInvitationNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()

	pending := func() *membership.Invitation {
		return &membership.Invitation{
			ID: 5, Token: "tok-1", WorkspaceID: 1, Email: "new@example.com",
			Role: membership.RoleMember, InvitedBy: 100,
			ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
		}
	}

	t.Run("creates the membership and marks accepted", func(t *testing.T) {
		store, mock, db := newMockInvitationStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM invitations WHERE token = \$1 FOR UPDATE`).
			WithArgs("tok-1").
			WillReturnRows(invitationRows(pending()))
		mock.ExpectExec(`INSERT INTO memberships`).
			WithArgs(int64(1), int64(200), "member", int64(100)).
			WillReturnResult(sqlmock.NewResult(9, 1))
		mock.ExpectQuery(`UPDATE invitations SET accepted_at = NOW\(\), accepted_by = \$1`).
			WithArgs(int64(200), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"accepted_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		inv, err := store.AcceptInvitation(ctx, "tok-1", 200)
		require.NoError(t, err)
		require.NotNil(t, inv.AcceptedBy)
		assert.Equal(t, int64(200), *inv.AcceptedBy)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired invitation rolls back", func(t *testing.T) {
		store, mock, db := newMockInvitationStore(t)
		defer db.Close()

		expired := pending()
		expired.ExpiresAt = time.Now().Add(-time.Hour)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM invitations WHERE token = \$1 FOR UPDATE`).
			WithArgs("tok-1").
			WillReturnRows(invitationRows(expired))
		mock.ExpectRollback()

		_, err := store.AcceptInvitation(ctx, "tok-1", 200)
		assert.ErrorIs(t, err, membership.ErrInvitationExpired)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing membership maps to ErrAlreadyMember", func(t *testing.T) {
		store, mock, db := newMockInvitationStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM invitations WHERE token = \$1 FOR UPDATE`).
			WithArgs("tok-1").
			WillReturnRows(invitationRows(pending()))
		mock.ExpectExec(`INSERT INTO memberships`).
			WithArgs(int64(1), int64(200), "member", int64(100)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "memberships_workspace_actor_key"})
		mock.ExpectRollback()

		_, err := store.AcceptInvitation(ctx, "tok-1", 200)
		assert.ErrorIs(t, err, membership.ErrAlreadyMember)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteExpiredInvitationsQuery(t *testing.T) {
	store, mock, db := newMockInvitationStore(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at <= NOW\(\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := store.DeleteExpiredInvitations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
