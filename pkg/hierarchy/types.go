package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ResourceType identifies the kind of entity nested under a workspace.
type ResourceType string

const (
	TypeWorkspace      ResourceType = "workspace"
	TypeBoard          ResourceType = "board"
	TypeTask           ResourceType = "task"
	TypeTaskStatus     ResourceType = "task_status"
	TypeTaskPriority   ResourceType = "task_priority"
	TypeTaskInitiative ResourceType = "task_initiative"
	TypeComment        ResourceType = "comment"
)

// Valid reports whether the type is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case TypeWorkspace, TypeBoard, TypeTask, TypeTaskStatus,
		TypeTaskPriority, TypeTaskInitiative, TypeComment:
		return true
	}
	return false
}

// ErrNotFound indicates the resource, or any link in its ancestor chain, does
// not exist. Broken parent references resolve to the same error so callers
// cannot distinguish a deleted ancestor from a missing resource.
var ErrNotFound = errors.New("resource not found")

// Resource is the live row of any entity under a workspace. Resources carry a
// reference to their immediate parent; WorkspaceID is denormalized so a chain
// can be verified without re-querying ancestor tables.
type Resource struct {
	ID          int64          `json:"id"`
	Type        ResourceType   `json:"type"`
	ParentID    *int64         `json:"parent_id,omitempty"` // nil only for workspaces
	WorkspaceID int64          `json:"workspace_id"`
	AuthorID    int64          `json:"author_id"`
	Name        string         `json:"name"`
	Fields      map[string]any `json:"fields,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// snapshotPayload is the wire shape of a revision snapshot. It captures the
// full mutable state of a resource; identity and timestamps are recorded on
// the revision row itself.
type snapshotPayload struct {
	Type        ResourceType   `json:"type"`
	ParentID    *int64         `json:"parent_id,omitempty"`
	WorkspaceID int64          `json:"workspace_id"`
	AuthorID    int64          `json:"author_id"`
	Name        string         `json:"name"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// Snapshot serializes the resource's full field set for revision storage.
func (r *Resource) Snapshot() (json.RawMessage, error) {
	data, err := json.Marshal(snapshotPayload{
		Type:        r.Type,
		ParentID:    r.ParentID,
		WorkspaceID: r.WorkspaceID,
		AuthorID:    r.AuthorID,
		Name:        r.Name,
		Fields:      r.Fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot resource %d: %w", r.ID, err)
	}
	return data, nil
}

// Chain is the ordered ancestor path [resource, parent, ..., workspace].
type Chain []*Resource

// Leaf returns the terminal resource the chain was resolved for.
func (c Chain) Leaf() *Resource {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// Workspace returns the tenant root the chain terminates in.
func (c Chain) Workspace() *Resource {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// ResourceStore provides read access to live resource rows.
type ResourceStore interface {
	// Get returns the resource by id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Resource, error)
}
