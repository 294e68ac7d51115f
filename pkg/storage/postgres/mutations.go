package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// MutationStore performs combined resource + revision writes. Every method
// commits the live-row change and its revision in one transaction; a failure
// in either rolls back both.
type MutationStore struct {
	db *sql.DB
}

// NewMutationStore creates a mutation store.
func NewMutationStore(db *sql.DB) *MutationStore {
	return &MutationStore{db: db}
}

// CreateWithRevision inserts the resource and its version-1 revision.
func (s *MutationStore) CreateWithRevision(ctx context.Context, res *hierarchy.Resource, actorID int64) (*revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	rev, err := insertResource(ctx, tx, res, actorID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create: %w", err)
	}
	return rev, nil
}

// UpdateWithRevision locks the live row, applies the change to current state,
// then writes the row and the next revision atomically.
func (s *MutationStore) UpdateWithRevision(ctx context.Context, resourceID int64, apply func(res *hierarchy.Resource), actorID int64) (*hierarchy.Resource, *revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := lockResource(ctx, tx, resourceID)
	if err != nil {
		return nil, nil, err
	}

	apply(res)

	fieldsJSON, err := encodeFields(res.Fields)
	if err != nil {
		return nil, nil, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE resources SET name = $1, fields = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, res.Name, fieldsJSON, resourceID).Scan(&res.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update resource %d: %w", resourceID, err)
	}

	rev, err := snapshotAndRecord(ctx, tx, res, actorID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return res, rev, nil
}

// MoveWithRevision re-parents the resource and re-homes its whole subtree to
// the destination's workspace. The destination row is locked FOR SHARE so a
// concurrent delete cannot leave the moved subtree orphaned.
func (s *MutationStore) MoveWithRevision(ctx context.Context, resourceID, destParentID, actorID int64) (*hierarchy.Resource, *revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := lockResource(ctx, tx, resourceID)
	if err != nil {
		return nil, nil, err
	}

	var destWorkspaceID int64
	err = tx.QueryRowContext(ctx,
		"SELECT workspace_id FROM resources WHERE id = $1 FOR SHARE",
		destParentID,
	).Scan(&destWorkspaceID)
	if err == sql.ErrNoRows {
		return nil, nil, hierarchy.ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to lock destination %d: %w", destParentID, err)
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE resources SET parent_id = $1, workspace_id = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, destParentID, destWorkspaceID, resourceID).Scan(&res.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to move resource %d: %w", resourceID, err)
	}
	res.ParentID = &destParentID
	res.WorkspaceID = destWorkspaceID

	// Re-home every descendant in one statement.
	_, err = tx.ExecContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM resources WHERE parent_id = $1
			UNION ALL
			SELECT r.id FROM resources r JOIN subtree s ON r.parent_id = s.id
		)
		UPDATE resources SET workspace_id = $2
		WHERE id IN (SELECT id FROM subtree)
	`, resourceID, destWorkspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-home subtree of %d: %w", resourceID, err)
	}

	rev, err := snapshotAndRecord(ctx, tx, res, actorID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit move: %w", err)
	}
	return res, rev, nil
}

// Delete removes the live row. Children cascade; revision history is kept.
func (s *MutationStore) Delete(ctx context.Context, resourceID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE id = $1", resourceID)
	if err != nil {
		return fmt.Errorf("failed to delete resource %d: %w", resourceID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return hierarchy.ErrNotFound
	}
	return nil
}

// CreateWorkspace creates a workspace with its version-1 revision and the
// creator's owner membership in one transaction. A workspace is never visible
// without an owner.
func (s *MutationStore) CreateWorkspace(ctx context.Context, res *hierarchy.Resource, actorID int64) (*revision.Revision, *membership.Membership, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res.Type = hierarchy.TypeWorkspace
	res.ParentID = nil
	res.AuthorID = actorID

	fieldsJSON, err := encodeFields(res.Fields)
	if err != nil {
		return nil, nil, err
	}

	// The workspace is its own root, so workspace_id is set to the row's own
	// id once it exists.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO resources (resource_type, parent_id, workspace_id, author_id, name, fields)
		VALUES ($1, NULL, 0, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, string(hierarchy.TypeWorkspace), actorID, res.Name, fieldsJSON).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert workspace: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE resources SET workspace_id = id WHERE id = $1", res.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to root workspace %d: %w", res.ID, err)
	}
	res.WorkspaceID = res.ID

	rev, err := snapshotAndRecord(ctx, tx, res, actorID)
	if err != nil {
		return nil, nil, err
	}

	member := &membership.Membership{
		WorkspaceID: res.ID,
		ActorID:     actorID,
		Role:        membership.RoleOwner,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO memberships (workspace_id, actor_id, role, invited_by)
		VALUES ($1, $2, $3, NULL)
		RETURNING id, created_at
	`, res.ID, actorID, string(membership.RoleOwner)).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit workspace create: %w", err)
	}
	return rev, member, nil
}

// insertResource inserts a non-workspace resource and its first revision
// inside an existing transaction.
func insertResource(ctx context.Context, tx *sql.Tx, res *hierarchy.Resource, actorID int64) (*revision.Revision, error) {
	fieldsJSON, err := encodeFields(res.Fields)
	if err != nil {
		return nil, err
	}

	// Lock the parent so a concurrent delete cannot orphan the new row.
	var parentWorkspace int64
	err = tx.QueryRowContext(ctx,
		"SELECT workspace_id FROM resources WHERE id = $1 FOR SHARE",
		res.ParentID,
	).Scan(&parentWorkspace)
	if err == sql.ErrNoRows {
		return nil, hierarchy.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to lock parent %d: %w", *res.ParentID, err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO resources (resource_type, parent_id, workspace_id, author_id, name, fields)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, string(res.Type), res.ParentID, res.WorkspaceID, res.AuthorID, res.Name, fieldsJSON).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert resource: %w", err)
	}

	return snapshotAndRecord(ctx, tx, res, actorID)
}

// lockResource selects the row FOR UPDATE and returns current state.
func lockResource(ctx context.Context, tx *sql.Tx, resourceID int64) (*hierarchy.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1 FOR UPDATE", resourceColumns)
	return scanResource(tx.QueryRowContext(ctx, query, resourceID))
}

func snapshotAndRecord(ctx context.Context, tx *sql.Tx, res *hierarchy.Resource, actorID int64) (*revision.Revision, error) {
	snapshot, err := res.Snapshot()
	if err != nil {
		return nil, err
	}
	return recordRevision(ctx, tx, res.ID, actorID, snapshot)
}
