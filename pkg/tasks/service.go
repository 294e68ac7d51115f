// Package tasks provides the task service: task CRUD on a board, the
// board-scoped catalogs (statuses, priorities, initiatives), comments with
// the author override, and revision history.
//
// Change sets referencing a catalog entry (status_id, priority_id,
// initiative_id) are validated against the task's board before any write: a
// reference to another board's entry aborts the mutation with no state
// change.
package tasks

import (
	"context"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/mutation"
	"github.com/openboard-dev/openboard/pkg/observability"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// ResourceStore provides the reads the validators and listings need.
type ResourceStore interface {
	Get(ctx context.Context, id int64) (*hierarchy.Resource, error)
	ListChildren(ctx context.Context, parentID int64, typ hierarchy.ResourceType) ([]*hierarchy.Resource, error)
}

// catalogFields maps change-set field names to the catalog type the value
// must reference.
var catalogFields = map[string]hierarchy.ResourceType{
	"status_id":     hierarchy.TypeTaskStatus,
	"priority_id":   hierarchy.TypeTaskPriority,
	"initiative_id": hierarchy.TypeTaskInitiative,
}

// catalogActions maps catalog types to their manage action.
var catalogActions = map[hierarchy.ResourceType]authz.Action{
	hierarchy.TypeTaskStatus:     authz.ActionStatusManage,
	hierarchy.TypeTaskPriority:   authz.ActionPriorityManage,
	hierarchy.TypeTaskInitiative: authz.ActionInitiativeManage,
}

// Service implements task operations on top of the mutation coordinator.
type Service struct {
	coordinator *mutation.Coordinator
	resources   ResourceStore
	revisions   revision.Store
	logger      *observability.Logger
}

// NewService creates a task service.
func NewService(coordinator *mutation.Coordinator, resources ResourceStore, revisions revision.Store, logger *observability.Logger) *Service {
	return &Service{
		coordinator: coordinator,
		resources:   resources,
		revisions:   revisions,
		logger:      logger,
	}
}

// Create adds a task to a board.
func (s *Service) Create(ctx context.Context, actorID, boardID int64, change mutation.ChangeSet) (*mutation.Result, error) {
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:     hierarchy.TypeTask,
		ParentID: boardID,
		Action:   authz.ActionTaskCreate,
		Change:   change,
		Validate: s.validateTaskChange,
	})
}

// Get returns the task if the actor is a member of its workspace.
func (s *Service) Get(ctx context.Context, actorID, taskID int64) (*hierarchy.Resource, error) {
	return s.coordinator.Read(ctx, actorID, hierarchy.TypeTask, taskID, authz.ActionTaskRead)
}

// List returns the board's tasks.
func (s *Service) List(ctx context.Context, actorID, boardID int64) ([]*hierarchy.Resource, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeBoard, boardID, authz.ActionTaskRead); err != nil {
		return nil, err
	}
	return s.resources.ListChildren(ctx, boardID, hierarchy.TypeTask)
}

// Update changes a task. The author may edit their own task below the
// general rank.
func (s *Service) Update(ctx context.Context, actorID, taskID int64, change mutation.ChangeSet) (*mutation.Result, error) {
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:       hierarchy.TypeTask,
		ResourceID: taskID,
		Action:     authz.ActionTaskUpdate,
		Change:     change,
		Validate:   s.validateTaskChange,
	})
}

// Delete removes a task, keeping its history.
func (s *Service) Delete(ctx context.Context, actorID, taskID int64) error {
	return s.coordinator.Delete(ctx, actorID, hierarchy.TypeTask, taskID, authz.ActionTaskDelete)
}

// Move re-parents the task to another board, re-checking access on both
// workspaces when the destination board lives elsewhere.
func (s *Service) Move(ctx context.Context, actorID, taskID, destBoardID int64) (*mutation.Result, error) {
	return s.coordinator.Move(ctx, actorID, mutation.MoveRequest{
		Type:         hierarchy.TypeTask,
		ResourceID:   taskID,
		DestParentID: destBoardID,
		Action:       authz.ActionTaskMove,
		Validate: func(ctx context.Context, dst hierarchy.Chain, _ mutation.ChangeSet) error {
			if dst.Leaf().Type != hierarchy.TypeBoard {
				return fmt.Errorf("move destination %d is not a board", dst.Leaf().ID)
			}
			return nil
		},
	})
}

// History returns the task's revisions, newest first, up to limit.
func (s *Service) History(ctx context.Context, actorID, taskID int64, limit int) ([]*revision.Revision, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeTask, taskID, authz.ActionTaskRead); err != nil {
		return nil, err
	}
	it := revision.History(s.revisions, taskID)
	var revisions []*revision.Revision
	for (limit <= 0 || len(revisions) < limit) && it.Next(ctx) {
		revisions = append(revisions, it.Revision())
	}
	return revisions, it.Err()
}

// validateTaskChange checks catalog references against the task's board. For
// creates the chain leaf is the board itself; for updates it is the task.
func (s *Service) validateTaskChange(ctx context.Context, chain hierarchy.Chain, change mutation.ChangeSet) error {
	var boardID int64
	switch chain.Leaf().Type {
	case hierarchy.TypeBoard:
		boardID = chain.Leaf().ID
	case hierarchy.TypeTask:
		if chain.Leaf().ParentID == nil {
			return fmt.Errorf("task %d has no board", chain.Leaf().ID)
		}
		boardID = *chain.Leaf().ParentID
	default:
		return fmt.Errorf("tasks cannot live under a %s", chain.Leaf().Type)
	}

	for field, typ := range catalogFields {
		raw, present := change.Fields[field]
		if !present || raw == nil {
			continue
		}
		refID, ok := fieldID(raw)
		if !ok {
			return fmt.Errorf("%s must be an integer id", field)
		}
		ref, err := s.resources.Get(ctx, refID)
		if err != nil {
			return fmt.Errorf("%s %d does not exist", field, refID)
		}
		if ref.Type != typ {
			return fmt.Errorf("%s %d is a %s", field, refID, ref.Type)
		}
		if ref.ParentID == nil || *ref.ParentID != boardID {
			return fmt.Errorf("%s %d belongs to another board", field, refID)
		}
	}
	return nil
}

// fieldID coerces a JSON-decoded field value to an id. Numbers arrive as
// float64 from encoding/json and as int64 from in-process callers.
func fieldID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
