package tasks

import (
	"context"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/mutation"
)

// Catalog entries (statuses, priorities, initiatives) are board-scoped and
// manager-managed. They version like any other resource so a renamed status
// shows up in history.

// CreateCatalogEntry adds a status, priority, or initiative to a board.
func (s *Service) CreateCatalogEntry(ctx context.Context, actorID, boardID int64, typ hierarchy.ResourceType, change mutation.ChangeSet) (*mutation.Result, error) {
	action, ok := catalogActions[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a catalog type", mutation.ErrInvalidChange, typ)
	}
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:     typ,
		ParentID: boardID,
		Action:   action,
		Change:   change,
		Validate: func(ctx context.Context, parent hierarchy.Chain, _ mutation.ChangeSet) error {
			if parent.Leaf().Type != hierarchy.TypeBoard {
				return fmt.Errorf("%s entries live under a board, not a %s", typ, parent.Leaf().Type)
			}
			return nil
		},
	})
}

// ListCatalogEntries returns the board's entries of one catalog type.
func (s *Service) ListCatalogEntries(ctx context.Context, actorID, boardID int64, typ hierarchy.ResourceType) ([]*hierarchy.Resource, error) {
	if _, ok := catalogActions[typ]; !ok {
		return nil, fmt.Errorf("%w: %s is not a catalog type", mutation.ErrInvalidChange, typ)
	}
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeBoard, boardID, authz.ActionTaskRead); err != nil {
		return nil, err
	}
	return s.resources.ListChildren(ctx, boardID, typ)
}

// UpdateCatalogEntry renames or re-configures an entry.
func (s *Service) UpdateCatalogEntry(ctx context.Context, actorID, entryID int64, typ hierarchy.ResourceType, change mutation.ChangeSet) (*mutation.Result, error) {
	action, ok := catalogActions[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a catalog type", mutation.ErrInvalidChange, typ)
	}
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:       typ,
		ResourceID: entryID,
		Action:     action,
		Change:     change,
	})
}

// DeleteCatalogEntry removes an entry. Tasks referencing it keep the dangling
// id in their live fields; history still shows what it pointed at.
func (s *Service) DeleteCatalogEntry(ctx context.Context, actorID, entryID int64, typ hierarchy.ResourceType) error {
	action, ok := catalogActions[typ]
	if !ok {
		return fmt.Errorf("%w: %s is not a catalog type", mutation.ErrInvalidChange, typ)
	}
	return s.coordinator.Delete(ctx, actorID, typ, entryID, action)
}
