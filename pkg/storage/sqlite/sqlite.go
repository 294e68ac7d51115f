// Package sqlite implements the persistence layer on an embedded SQLite
// database. It mirrors the postgres stores behind one combined Store, which
// makes it the default backend for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// Store is a single-file SQLite backend. One value serves as the resource,
// membership, revision, and mutation store. Writes are serialized through
// immediate transactions, so the row-lock reasoning of the postgres backend
// degenerates to whole-database locking here.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite handles one writer at a time; more connections just queue.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS resources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource_type TEXT NOT NULL,
			parent_id INTEGER REFERENCES resources(id) ON DELETE CASCADE,
			workspace_id INTEGER NOT NULL,
			author_id INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			fields TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_resources_parent_id ON resources(parent_id);
		CREATE INDEX IF NOT EXISTS idx_resources_workspace_id ON resources(workspace_id);

		CREATE TABLE IF NOT EXISTS revisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource_id INTEGER NOT NULL,
			version INTEGER NOT NULL,
			actor_id INTEGER NOT NULL,
			snapshot TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (resource_id, version)
		);

		CREATE TABLE IF NOT EXISTS memberships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workspace_id INTEGER NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
			actor_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			invited_by INTEGER,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (workspace_id, actor_id)
		);

		CREATE TABLE IF NOT EXISTS invitations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL UNIQUE,
			workspace_id INTEGER NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			invited_by INTEGER NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			accepted_at TIMESTAMP,
			accepted_by INTEGER,
			created_at TIMESTAMP NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

// --- hierarchy.ResourceStore ---

// Get returns the resource by id, or hierarchy.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*hierarchy.Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, resource_type, parent_id, workspace_id, author_id, name, fields, created_at, updated_at
		FROM resources WHERE id = ?
	`, id)
	return scanResource(row)
}

// ListChildren returns all children of the given type under a parent, oldest
// first.
func (s *Store) ListChildren(ctx context.Context, parentID int64, typ hierarchy.ResourceType) ([]*hierarchy.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_type, parent_id, workspace_id, author_id, name, fields, created_at, updated_at
		FROM resources WHERE parent_id = ? AND resource_type = ?
		ORDER BY created_at, id
	`, parentID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %d: %w", parentID, err)
	}
	defer rows.Close()

	var resources []*hierarchy.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// --- membership.Store ---

// GetRole returns the actor's role on the workspace, or ErrNotAMember.
func (s *Store) GetRole(ctx context.Context, workspaceID, actorID int64) (membership.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM memberships WHERE workspace_id = ? AND actor_id = ?",
		workspaceID, actorID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", membership.ErrNotAMember
	} else if err != nil {
		return "", fmt.Errorf("failed to get role: %w", err)
	}
	return membership.Role(role), nil
}

// ListMembers returns all memberships for a workspace, oldest first.
func (s *Store) ListMembers(ctx context.Context, workspaceID int64) ([]*membership.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, actor_id, role, invited_by, created_at
		FROM memberships WHERE workspace_id = ?
		ORDER BY created_at, id
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
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
	return members, rows.Err()
}

// Add creates a membership. Returns ErrAlreadyMember on duplicates.
func (s *Store) Add(ctx context.Context, m *membership.Membership) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (workspace_id, actor_id, role, invited_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.WorkspaceID, m.ActorID, string(m.Role), m.InvitedBy, now)
	if isUniqueViolation(err) {
		return membership.ErrAlreadyMember
	} else if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}

	m.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read membership id: %w", err)
	}
	m.CreatedAt = now
	return nil
}

// SetRole changes a member's role, guarding the last owner.
func (s *Store) SetRole(ctx context.Context, workspaceID, actorID int64, role membership.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := currentRole(ctx, tx, workspaceID, actorID)
	if err != nil {
		return err
	}

	if current == membership.RoleOwner && role != membership.RoleOwner {
		if err := ensureAnotherOwner(ctx, tx, workspaceID, actorID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE memberships SET role = ? WHERE workspace_id = ? AND actor_id = ?",
		string(role), workspaceID, actorID,
	); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return tx.Commit()
}

// Remove deletes a membership, guarding the last owner.
func (s *Store) Remove(ctx context.Context, workspaceID, actorID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := currentRole(ctx, tx, workspaceID, actorID)
	if err != nil {
		return err
	}

	if current == membership.RoleOwner {
		if err := ensureAnotherOwner(ctx, tx, workspaceID, actorID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM memberships WHERE workspace_id = ? AND actor_id = ?",
		workspaceID, actorID,
	); err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return tx.Commit()
}

// --- revision.Store ---

// Record persists a new revision with version = current max + 1.
func (s *Store) Record(ctx context.Context, resourceID, actorID int64, snapshot json.RawMessage) (*revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	rev, err := recordRevision(ctx, tx, resourceID, actorID, snapshot)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit revision: %w", err)
	}
	return rev, nil
}

// LatestVersion returns the highest version recorded for the resource, or 0.
func (s *Store) LatestVersion(ctx context.Context, resourceID int64) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM revisions WHERE resource_id = ?",
		resourceID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest version: %w", err)
	}
	return version, nil
}

// Page returns up to limit revisions with version < beforeVersion, descending.
func (s *Store) Page(ctx context.Context, resourceID int64, beforeVersion int64, limit int) ([]*revision.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_id, version, actor_id, snapshot, created_at
		FROM revisions
		WHERE resource_id = ? AND (? <= 0 OR version < ?)
		ORDER BY version DESC
		LIMIT ?
	`, resourceID, beforeVersion, beforeVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*revision.Revision
	for rows.Next() {
		var rev revision.Revision
		var snapshot []byte
		if err := rows.Scan(&rev.ID, &rev.ResourceID, &rev.Version, &rev.ActorID, &snapshot, &rev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		rev.Snapshot = snapshot
		revisions = append(revisions, &rev)
	}
	return revisions, rows.Err()
}

// --- mutation.Store ---

// CreateWithRevision inserts the resource and its version-1 revision.
func (s *Store) CreateWithRevision(ctx context.Context, res *hierarchy.Resource, actorID int64) (*revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if res.ParentID != nil {
		var exists int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM resources WHERE id = ?", *res.ParentID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, hierarchy.ErrNotFound
		} else if err != nil {
			return nil, fmt.Errorf("failed to check parent %d: %w", *res.ParentID, err)
		}
	}

	rev, err := insertResource(ctx, tx, res, actorID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create: %w", err)
	}
	return rev, nil
}

// UpdateWithRevision re-reads current state inside the write transaction,
// applies the change, and records the next revision.
func (s *Store) UpdateWithRevision(ctx context.Context, resourceID int64, apply func(res *hierarchy.Resource), actorID int64) (*hierarchy.Resource, *revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := getResourceTx(ctx, tx, resourceID)
	if err != nil {
		return nil, nil, err
	}

	apply(res)
	res.UpdatedAt = time.Now().UTC()

	fieldsJSON, err := encodeFields(res.Fields)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE resources SET name = ?, fields = ?, updated_at = ? WHERE id = ?",
		res.Name, fieldsJSON, res.UpdatedAt, resourceID,
	); err != nil {
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

// MoveWithRevision re-parents the resource and re-homes its subtree.
func (s *Store) MoveWithRevision(ctx context.Context, resourceID, destParentID, actorID int64) (*hierarchy.Resource, *revision.Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := getResourceTx(ctx, tx, resourceID)
	if err != nil {
		return nil, nil, err
	}

	var destWorkspaceID int64
	err = tx.QueryRowContext(ctx,
		"SELECT workspace_id FROM resources WHERE id = ?", destParentID,
	).Scan(&destWorkspaceID)
	if err == sql.ErrNoRows {
		return nil, nil, hierarchy.ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to read destination %d: %w", destParentID, err)
	}

	res.ParentID = &destParentID
	res.WorkspaceID = destWorkspaceID
	res.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		"UPDATE resources SET parent_id = ?, workspace_id = ?, updated_at = ? WHERE id = ?",
		destParentID, destWorkspaceID, res.UpdatedAt, resourceID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to move resource %d: %w", resourceID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM resources WHERE parent_id = ?
			UNION ALL
			SELECT r.id FROM resources r JOIN subtree s ON r.parent_id = s.id
		)
		UPDATE resources SET workspace_id = ?
		WHERE id IN (SELECT id FROM subtree)
	`, resourceID, destWorkspaceID); err != nil {
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

// Delete removes the live row. Children cascade; history is kept.
func (s *Store) Delete(ctx context.Context, resourceID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", resourceID)
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

// CreateWorkspace creates a workspace, its version-1 revision, and the
// creator's owner membership in one transaction.
func (s *Store) CreateWorkspace(ctx context.Context, res *hierarchy.Resource, actorID int64) (*revision.Revision, *membership.Membership, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res.Type = hierarchy.TypeWorkspace
	res.ParentID = nil
	res.AuthorID = actorID
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now

	fieldsJSON, err := encodeFields(res.Fields)
	if err != nil {
		return nil, nil, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO resources (resource_type, parent_id, workspace_id, author_id, name, fields, created_at, updated_at)
		VALUES (?, NULL, 0, ?, ?, ?, ?, ?)
	`, string(hierarchy.TypeWorkspace), actorID, res.Name, fieldsJSON, now, now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert workspace: %w", err)
	}
	res.ID, err = result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workspace id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE resources SET workspace_id = id WHERE id = ?", res.ID,
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
		CreatedAt:   now,
	}
	memberResult, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (workspace_id, actor_id, role, invited_by, created_at)
		VALUES (?, ?, ?, NULL, ?)
	`, res.ID, actorID, string(membership.RoleOwner), now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert owner membership: %w", err)
	}
	member.ID, err = memberResult.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read membership id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit workspace create: %w", err)
	}
	return rev, member, nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*hierarchy.Resource, error) {
	var res hierarchy.Resource
	var typ string
	var parentID sql.NullInt64
	var fieldsJSON []byte

	err := row.Scan(&res.ID, &typ, &parentID, &res.WorkspaceID, &res.AuthorID,
		&res.Name, &fieldsJSON, &res.CreatedAt, &res.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, hierarchy.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to scan resource: %w", err)
	}

	res.Type = hierarchy.ResourceType(typ)
	if parentID.Valid {
		res.ParentID = &parentID.Int64
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &res.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields for resource %d: %w", res.ID, err)
		}
	}
	return &res, nil
}

func getResourceTx(ctx context.Context, tx *sql.Tx, id int64) (*hierarchy.Resource, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, resource_type, parent_id, workspace_id, author_id, name, fields, created_at, updated_at
		FROM resources WHERE id = ?
	`, id)
	return scanResource(row)
}

func insertResource(ctx context.Context, tx *sql.Tx, res *hierarchy.Resource, actorID int64) (*revision.Revision, error) {
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now

	fieldsJSON, err := encodeFields(res.Fields)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO resources (resource_type, parent_id, workspace_id, author_id, name, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(res.Type), res.ParentID, res.WorkspaceID, res.AuthorID, res.Name, fieldsJSON, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert resource: %w", err)
	}
	res.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read resource id: %w", err)
	}

	return snapshotAndRecord(ctx, tx, res, actorID)
}

func snapshotAndRecord(ctx context.Context, tx *sql.Tx, res *hierarchy.Resource, actorID int64) (*revision.Revision, error) {
	snapshot, err := res.Snapshot()
	if err != nil {
		return nil, err
	}
	return recordRevision(ctx, tx, res.ID, actorID, snapshot)
}

func recordRevision(ctx context.Context, tx *sql.Tx, resourceID, actorID int64, snapshot json.RawMessage) (*revision.Revision, error) {
	rev := &revision.Revision{
		ResourceID: resourceID,
		ActorID:    actorID,
		Timestamp:  time.Now().UTC(),
		Snapshot:   snapshot,
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM revisions WHERE resource_id = ?",
		resourceID,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to compute next version: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (resource_id, version, actor_id, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, resourceID, next, actorID, []byte(snapshot), rev.Timestamp)
	if isUniqueViolation(err) {
		return nil, revision.ErrConflict
	} else if err != nil {
		return nil, fmt.Errorf("failed to record revision: %w", err)
	}

	rev.Version = next
	rev.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read revision id: %w", err)
	}
	return rev, nil
}

func currentRole(ctx context.Context, tx *sql.Tx, workspaceID, actorID int64) (membership.Role, error) {
	var role string
	err := tx.QueryRowContext(ctx,
		"SELECT role FROM memberships WHERE workspace_id = ? AND actor_id = ?",
		workspaceID, actorID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", membership.ErrNotAMember
	} else if err != nil {
		return "", fmt.Errorf("failed to read membership: %w", err)
	}
	return membership.Role(role), nil
}

func ensureAnotherOwner(ctx context.Context, tx *sql.Tx, workspaceID, actorID int64) error {
	var others int64
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memberships WHERE workspace_id = ? AND role = ? AND actor_id != ?",
		workspaceID, string(membership.RoleOwner), actorID,
	).Scan(&others)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if others == 0 {
		return membership.ErrLastOwner
	}
	return nil
}

func encodeFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	return data, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
