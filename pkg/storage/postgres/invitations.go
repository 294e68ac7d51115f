package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openboard-dev/openboard/pkg/membership"
)

const invitationColumns = "id, token, workspace_id, email, role, invited_by, expires_at, accepted_at, accepted_by, created_at"

// InvitationStore implements membership.InvitationStore on PostgreSQL.
type InvitationStore struct {
	db *sql.DB
}

// NewInvitationStore creates an invitation store.
func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

// CreateInvitation persists a new invitation.
func (s *InvitationStore) CreateInvitation(ctx context.Context, inv *membership.Invitation) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO invitations (token, workspace_id, email, role, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		inv.Token, inv.WorkspaceID, inv.Email, string(inv.Role), inv.InvitedBy, inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation for workspace %d: %w", inv.WorkspaceID, err)
	}
	return nil
}

// GetInvitation returns the invitation for a token.
func (s *InvitationStore) GetInvitation(ctx context.Context, token string) (*membership.Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE token = $1", token)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, membership.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListInvitations returns the workspace's pending invitations, oldest first.
func (s *InvitationStore) ListInvitations(ctx context.Context, workspaceID int64) ([]*membership.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE workspace_id = $1 AND accepted_at IS NULL AND expires_at > NOW()
		ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations for workspace %d: %w", workspaceID, err)
	}
	defer rows.Close()

	var invitations []*membership.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// AcceptInvitation redeems the token for the actor. The invitation row is
// locked so two concurrent accepts of the same token cannot both create a
// membership.
func (s *InvitationStore) AcceptInvitation(ctx context.Context, token string, actorID int64) (*membership.Invitation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE token = $1 FOR UPDATE", token)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, membership.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock invitation: %w", err)
	}
	if !inv.Pending(time.Now()) {
		return nil, membership.ErrInvitationExpired
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memberships (workspace_id, actor_id, role, invited_by)
		VALUES ($1, $2, $3, $4)`,
		inv.WorkspaceID, actorID, string(inv.Role), inv.InvitedBy)
	if err != nil {
		if isUniqueViolation(err, "memberships_workspace_actor_key") {
			return nil, membership.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to create membership from invitation: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE invitations SET accepted_at = NOW(), accepted_by = $1
		WHERE id = $2
		RETURNING accepted_at`,
		actorID, inv.ID,
	).Scan(&inv.AcceptedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}
	inv.AcceptedBy = &actorID

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation accept: %w", err)
	}
	return inv, nil
}

// DeleteExpiredInvitations removes unaccepted invitations past their expiry.
func (s *InvitationStore) DeleteExpiredInvitations(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at <= NOW()")
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}
	return result.RowsAffected()
}

func scanInvitation(row rowScanner) (*membership.Invitation, error) {
	var inv membership.Invitation
	var role string
	err := row.Scan(&inv.ID, &inv.Token, &inv.WorkspaceID, &inv.Email, &role,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.AcceptedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = membership.Role(role)
	return &inv, nil
}
