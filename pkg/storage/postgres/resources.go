package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/openboard-dev/openboard/pkg/hierarchy"
)

const resourceColumns = "id, resource_type, parent_id, workspace_id, author_id, name, fields, created_at, updated_at"

// ResourceStore reads live resource rows. It satisfies hierarchy.ResourceStore.
type ResourceStore struct {
	db *sql.DB
}

// NewResourceStore creates a resource store.
func NewResourceStore(db *sql.DB) *ResourceStore {
	return &ResourceStore{db: db}
}

// Get returns the resource by id, or hierarchy.ErrNotFound.
func (s *ResourceStore) Get(ctx context.Context, id int64) (*hierarchy.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1", resourceColumns)
	return scanResource(s.db.QueryRowContext(ctx, query, id))
}

// ListChildren returns all children of the given type under a parent, oldest
// first.
func (s *ResourceStore) ListChildren(ctx context.Context, parentID int64, typ hierarchy.ResourceType) ([]*hierarchy.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM resources
		WHERE parent_id = $1 AND resource_type = $2
		ORDER BY created_at, id
	`, resourceColumns)

	rows, err := s.db.QueryContext(ctx, query, parentID, string(typ))
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children of %d: %w", parentID, err)
	}
	return resources, nil
}


// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*hierarchy.Resource, error) {
	var res hierarchy.Resource
	var typ string
	var parentID sql.NullInt64
	var fieldsJSON []byte

	err := row.Scan(
		&res.ID,
		&typ,
		&parentID,
		&res.WorkspaceID,
		&res.AuthorID,
		&res.Name,
		&fieldsJSON,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
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

// isUniqueViolation reports whether err is a unique constraint violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
}
