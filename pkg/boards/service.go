// Package boards provides the board service: CRUD under a workspace and
// cross-workspace moves. Moves re-check authorization on both the source and
// the destination workspace before any write.
package boards

import (
	"context"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/mutation"
	"github.com/openboard-dev/openboard/pkg/observability"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// ResourceLister lists live child rows, used for board listings.
type ResourceLister interface {
	ListChildren(ctx context.Context, parentID int64, typ hierarchy.ResourceType) ([]*hierarchy.Resource, error)
}

// Service implements board operations on top of the mutation coordinator.
type Service struct {
	coordinator *mutation.Coordinator
	resources   ResourceLister
	revisions   revision.Store
	logger      *observability.Logger
}

// NewService creates a board service.
func NewService(coordinator *mutation.Coordinator, resources ResourceLister, revisions revision.Store, logger *observability.Logger) *Service {
	return &Service{
		coordinator: coordinator,
		resources:   resources,
		revisions:   revisions,
		logger:      logger,
	}
}

// Create adds a board to a workspace.
func (s *Service) Create(ctx context.Context, actorID, workspaceID int64, change mutation.ChangeSet) (*mutation.Result, error) {
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:     hierarchy.TypeBoard,
		ParentID: workspaceID,
		Action:   authz.ActionBoardCreate,
		Change:   change,
		Validate: requireParentType(hierarchy.TypeWorkspace),
	})
}

// Get returns the board if the actor is a member of its workspace.
func (s *Service) Get(ctx context.Context, actorID, boardID int64) (*hierarchy.Resource, error) {
	return s.coordinator.Read(ctx, actorID, hierarchy.TypeBoard, boardID, authz.ActionBoardRead)
}

// List returns the workspace's boards.
func (s *Service) List(ctx context.Context, actorID, workspaceID int64) ([]*hierarchy.Resource, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionBoardRead); err != nil {
		return nil, err
	}
	return s.resources.ListChildren(ctx, workspaceID, hierarchy.TypeBoard)
}

// Update renames the board or changes its fields.
func (s *Service) Update(ctx context.Context, actorID, boardID int64, change mutation.ChangeSet) (*mutation.Result, error) {
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:       hierarchy.TypeBoard,
		ResourceID: boardID,
		Action:     authz.ActionBoardUpdate,
		Change:     change,
	})
}

// Delete removes the board and everything on it.
func (s *Service) Delete(ctx context.Context, actorID, boardID int64) error {
	return s.coordinator.Delete(ctx, actorID, hierarchy.TypeBoard, boardID, authz.ActionBoardDelete)
}

// Move re-parents the board to another workspace. The actor needs board:move
// rank on both workspaces; the board's tasks follow it.
func (s *Service) Move(ctx context.Context, actorID, boardID, destWorkspaceID int64) (*mutation.Result, error) {
	return s.coordinator.Move(ctx, actorID, mutation.MoveRequest{
		Type:         hierarchy.TypeBoard,
		ResourceID:   boardID,
		DestParentID: destWorkspaceID,
		Action:       authz.ActionBoardMove,
		Validate: func(ctx context.Context, dst hierarchy.Chain, _ mutation.ChangeSet) error {
			if dst.Leaf().Type != hierarchy.TypeWorkspace {
				return fmt.Errorf("move destination %d is not a workspace", dst.Leaf().ID)
			}
			return nil
		},
	})
}

// History returns the board's revisions, newest first, up to limit.
func (s *Service) History(ctx context.Context, actorID, boardID int64, limit int) ([]*revision.Revision, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeBoard, boardID, authz.ActionBoardRead); err != nil {
		return nil, err
	}
	it := revision.History(s.revisions, boardID)
	var revisions []*revision.Revision
	for (limit <= 0 || len(revisions) < limit) && it.Next(ctx) {
		revisions = append(revisions, it.Revision())
	}
	return revisions, it.Err()
}

// requireParentType validates that a create lands under the expected parent
// kind, e.g. boards under workspaces.
func requireParentType(typ hierarchy.ResourceType) mutation.Validator {
	return func(ctx context.Context, parent hierarchy.Chain, _ mutation.ChangeSet) error {
		if parent.Leaf().Type != typ {
			return fmt.Errorf("parent %d is a %s, expected %s", parent.Leaf().ID, parent.Leaf().Type, typ)
		}
		return nil
	}
}
