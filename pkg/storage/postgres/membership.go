package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/membership"
)

// MembershipStore persists workspace memberships. The last-owner invariant is
// enforced inside transactions: the owner rows are locked and re-counted in
// the same transaction that demotes or removes, so two concurrent demotions
// cannot both observe a sibling owner.
type MembershipStore struct {
	db *sql.DB
}

// NewMembershipStore creates a membership store.
func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// GetRole returns the actor's role on the workspace, or ErrNotAMember.
func (s *MembershipStore) GetRole(ctx context.Context, workspaceID, actorID int64) (membership.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM memberships WHERE workspace_id = $1 AND actor_id = $2",
		workspaceID, actorID,
	).Scan(&role)

	if err == sql.ErrNoRows {
		return "", membership.ErrNotAMember
	} else if err != nil {
		return "", fmt.Errorf("failed to get role for actor %d on workspace %d: %w", actorID, workspaceID, err)
	}
	return membership.Role(role), nil
}

// ListMembers returns all memberships for a workspace, oldest first.
func (s *MembershipStore) ListMembers(ctx context.Context, workspaceID int64) ([]*membership.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, actor_id, role, invited_by, created_at
		FROM memberships
		WHERE workspace_id = $1
		ORDER BY created_at, id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of workspace %d: %w", workspaceID, err)
	}
	defer rows.Close()

	var members []*membership.Membership
	for rows.Next() {
		var m membership.Membership
		var role string
		var invitedBy sql.NullInt64
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.ActorID, &role, &invitedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Role = membership.Role(role)
		if invitedBy.Valid {
			m.InvitedBy = &invitedBy.Int64
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members of workspace %d: %w", workspaceID, err)
	}
	return members, nil
}

// Add creates a membership. Returns ErrAlreadyMember on duplicates.
func (s *MembershipStore) Add(ctx context.Context, m *membership.Membership) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO memberships (workspace_id, actor_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, m.WorkspaceID, m.ActorID, string(m.Role), m.InvitedBy).Scan(&m.ID, &m.CreatedAt)

	if isUniqueViolation(err, "memberships_workspace_actor_key") {
		return membership.ErrAlreadyMember
	} else if err != nil {
		return fmt.Errorf("failed to add actor %d to workspace %d: %w", m.ActorID, m.WorkspaceID, err)
	}
	return nil
}

// SetRole changes an existing member's role. Demoting the last owner fails
// with ErrLastOwner.
func (s *MembershipStore) SetRole(ctx context.Context, workspaceID, actorID int64, role membership.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMembership(ctx, tx, workspaceID, actorID)
	if err != nil {
		return err
	}

	if current == membership.RoleOwner && role != membership.RoleOwner {
		if err := ensureAnotherOwner(ctx, tx, workspaceID, actorID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE memberships SET role = $1 WHERE workspace_id = $2 AND actor_id = $3",
		string(role), workspaceID, actorID,
	); err != nil {
		return fmt.Errorf("failed to set role for actor %d on workspace %d: %w", actorID, workspaceID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role change: %w", err)
	}
	return nil
}

// Remove deletes a membership. Removing the last owner fails with
// ErrLastOwner.
func (s *MembershipStore) Remove(ctx context.Context, workspaceID, actorID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMembership(ctx, tx, workspaceID, actorID)
	if err != nil {
		return err
	}

	if current == membership.RoleOwner {
		if err := ensureAnotherOwner(ctx, tx, workspaceID, actorID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM memberships WHERE workspace_id = $1 AND actor_id = $2",
		workspaceID, actorID,
	); err != nil {
		return fmt.Errorf("failed to remove actor %d from workspace %d: %w", actorID, workspaceID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit removal: %w", err)
	}
	return nil
}

// lockMembership locks the member's row and returns its current role.
func lockMembership(ctx context.Context, tx *sql.Tx, workspaceID, actorID int64) (membership.Role, error) {
	var role string
	err := tx.QueryRowContext(ctx,
		"SELECT role FROM memberships WHERE workspace_id = $1 AND actor_id = $2 FOR UPDATE",
		workspaceID, actorID,
	).Scan(&role)

	if err == sql.ErrNoRows {
		return "", membership.ErrNotAMember
	} else if err != nil {
		return "", fmt.Errorf("failed to lock membership for actor %d on workspace %d: %w", actorID, workspaceID, err)
	}
	return membership.Role(role), nil
}

// ensureAnotherOwner locks the workspace's owner rows and fails with
// ErrLastOwner unless an owner other than the given actor exists. The lock
// serializes concurrent demotions of sibling owners.
func ensureAnotherOwner(ctx context.Context, tx *sql.Tx, workspaceID, actorID int64) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT actor_id FROM memberships WHERE workspace_id = $1 AND role = $2 FOR UPDATE",
		workspaceID, string(membership.RoleOwner),
	)
	if err != nil {
		return fmt.Errorf("failed to lock owner rows for workspace %d: %w", workspaceID, err)
	}
	defer rows.Close()

	others := 0
	for rows.Next() {
		var owner int64
		if err := rows.Scan(&owner); err != nil {
			return fmt.Errorf("failed to scan owner row: %w", err)
		}
		if owner != actorID {
			others++
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating owner rows: %w", err)
	}

	if others == 0 {
		return membership.ErrLastOwner
	}
	return nil
}
