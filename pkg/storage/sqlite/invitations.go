package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openboard-dev/openboard/pkg/membership"
)

const invitationColumns = "id, token, workspace_id, email, role, invited_by, expires_at, accepted_at, accepted_by, created_at"

// CreateInvitation persists a new invitation.
func (s *Store) CreateInvitation(ctx context.Context, inv *membership.Invitation) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (token, workspace_id, email, role, invited_by, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.Token, inv.WorkspaceID, inv.Email, string(inv.Role), inv.InvitedBy, inv.ExpiresAt, now)
	if err != nil {
		return fmt.Errorf("failed to create invitation for workspace %d: %w", inv.WorkspaceID, err)
	}
	inv.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read invitation id: %w", err)
	}
	inv.CreatedAt = now
	return nil
}

// GetInvitation returns the invitation for a token.
func (s *Store) GetInvitation(ctx context.Context, token string) (*membership.Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE token = ?", token)
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
func (s *Store) ListInvitations(ctx context.Context, workspaceID int64) ([]*membership.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE workspace_id = ? AND accepted_at IS NULL AND expires_at > ?
		ORDER BY created_at, id`, workspaceID, time.Now().UTC())
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

// AcceptInvitation redeems the token for the actor. The immediate transaction
// serializes concurrent accepts of the same token.
func (s *Store) AcceptInvitation(ctx context.Context, token string, actorID int64) (*membership.Invitation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE token = ?", token)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, membership.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read invitation: %w", err)
	}
	now := time.Now().UTC()
	if !inv.Pending(now) {
		return nil, membership.ErrInvitationExpired
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memberships (workspace_id, actor_id, role, invited_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		inv.WorkspaceID, actorID, string(inv.Role), inv.InvitedBy, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, membership.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to create membership from invitation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE invitations SET accepted_at = ?, accepted_by = ? WHERE id = ?",
		now, actorID, inv.ID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}
	inv.AcceptedAt = &now
	inv.AcceptedBy = &actorID

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation accept: %w", err)
	}
	return inv, nil
}

// DeleteExpiredInvitations removes unaccepted invitations past their expiry.
func (s *Store) DeleteExpiredInvitations(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at <= ?", time.Now().UTC())
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
