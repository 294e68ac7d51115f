package mutation

import (
	"context"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// ChangeSet is the caller-validated set of field changes to apply. Nil
// pointers mean "leave unchanged"; Fields are merged key-by-key into the
// resource's field map.
type ChangeSet struct {
	Name   *string        `json:"name,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Apply merges the change set into the resource.
func (c ChangeSet) Apply(res *hierarchy.Resource) {
	if c.Name != nil {
		res.Name = *c.Name
	}
	if len(c.Fields) > 0 {
		if res.Fields == nil {
			res.Fields = make(map[string]any, len(c.Fields))
		}
		for k, v := range c.Fields {
			res.Fields[k] = v
		}
	}
}

// Validator checks resource-specific structural rules, e.g. "the referenced
// status belongs to this board". Validators run after authorization and
// before any write; a non-nil return aborts the mutation with ErrInvalidChange
// and no state change.
type Validator func(ctx context.Context, chain hierarchy.Chain, change ChangeSet) error

// Request describes a create or update.
type Request struct {
	Type hierarchy.ResourceType

	// ResourceID of the resource to update; zero means create.
	ResourceID int64

	// ParentID is the declared parent for creates. It must resolve.
	ParentID int64

	Action   authz.Action
	Change   ChangeSet
	Validate Validator // optional
}

// MoveRequest describes a re-parenting, possibly across workspaces.
type MoveRequest struct {
	Type         hierarchy.ResourceType
	ResourceID   int64
	DestParentID int64
	Action       authz.Action
	Validate     Validator // optional; runs against the destination chain
}

// Result is the outcome of a successful mutation: the updated live resource
// and the revision recorded for it.
type Result struct {
	Resource *hierarchy.Resource `json:"resource"`
	Revision *revision.Revision  `json:"revision"`
}

// Store is the transactional seam the coordinator writes through. For each
// method the live-row write and the revision insert are one atomic unit:
// both commit or neither does.
type Store interface {
	// CreateWithRevision inserts the resource and its version-1 revision.
	// res.ID, CreatedAt and UpdatedAt are populated on return.
	CreateWithRevision(ctx context.Context, res *hierarchy.Resource, actorID int64) (*revision.Revision, error)

	// UpdateWithRevision locks the live row, re-reads current state, applies
	// the change via apply, then writes the row and the next revision.
	// Returns hierarchy.ErrNotFound if the resource vanished and
	// revision.ErrConflict if a concurrent writer claimed the version.
	UpdateWithRevision(ctx context.Context, resourceID int64, apply func(res *hierarchy.Resource), actorID int64) (*hierarchy.Resource, *revision.Revision, error)

	// MoveWithRevision re-parents the resource and re-homes its subtree to
	// the destination's workspace, recording a revision for the moved
	// resource. Fails closed with hierarchy.ErrNotFound if the destination
	// parent no longer exists at write time.
	MoveWithRevision(ctx context.Context, resourceID, destParentID, actorID int64) (*hierarchy.Resource, *revision.Revision, error)

	// Delete removes the live row. Revisions are retained as orphaned
	// history.
	Delete(ctx context.Context, resourceID int64) error
}
