package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/revision"
)

// RevisionStore persists the append-only version history. Versions are
// assigned as max+1 inside a transaction; the UNIQUE (resource_id, version)
// constraint serializes concurrent writers, and losers get
// revision.ErrConflict instead of overwriting history.
type RevisionStore struct {
	db *sql.DB
}

// NewRevisionStore creates a revision store.
func NewRevisionStore(db *sql.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// Record persists a new revision with version = current max + 1.
func (s *RevisionStore) Record(ctx context.Context, resourceID, actorID int64, snapshot json.RawMessage) (*revision.Revision, error) {
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
func (s *RevisionStore) LatestVersion(ctx context.Context, resourceID int64) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM revisions WHERE resource_id = $1",
		resourceID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest version for resource %d: %w", resourceID, err)
	}
	return version, nil
}

// Page returns up to limit revisions with version < beforeVersion, descending.
// beforeVersion <= 0 means "from the latest".
func (s *RevisionStore) Page(ctx context.Context, resourceID int64, beforeVersion int64, limit int) ([]*revision.Revision, error) {
	query := `
		SELECT id, resource_id, version, actor_id, snapshot, created_at
		FROM revisions
		WHERE resource_id = $1 AND ($2 <= 0 OR version < $2)
		ORDER BY version DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, resourceID, beforeVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page revisions for resource %d: %w", resourceID, err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revisions for resource %d: %w", resourceID, err)
	}
	return revisions, nil
}

// recordRevision inserts the next revision inside an existing transaction.
func recordRevision(ctx context.Context, tx *sql.Tx, resourceID, actorID int64, snapshot json.RawMessage) (*revision.Revision, error) {
	rev := &revision.Revision{
		ResourceID: resourceID,
		ActorID:    actorID,
		Snapshot:   snapshot,
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO revisions (resource_id, version, actor_id, snapshot)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3
		FROM revisions WHERE resource_id = $1
		RETURNING id, version, created_at
	`, resourceID, actorID, []byte(snapshot)).Scan(&rev.ID, &rev.Version, &rev.Timestamp)

	if isUniqueViolation(err, "revisions_resource_version_key") {
		return nil, revision.ErrConflict
	} else if err != nil {
		return nil, fmt.Errorf("failed to record revision for resource %d: %w", resourceID, err)
	}
	return rev, nil
}
