package tasks

import (
	"context"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/mutation"
)

// Comments hang off tasks. Editing and deleting generally require manager
// rank, but authors may always edit or delete their own comments; the
// ownership override in the policy table carries that rule.

// CreateComment adds a comment to a task.
func (s *Service) CreateComment(ctx context.Context, actorID, taskID int64, body string) (*mutation.Result, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", mutation.ErrInvalidChange)
	}
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:     hierarchy.TypeComment,
		ParentID: taskID,
		Action:   authz.ActionCommentCreate,
		Change:   mutation.ChangeSet{Fields: map[string]any{"body": body}},
		Validate: func(ctx context.Context, parent hierarchy.Chain, _ mutation.ChangeSet) error {
			if parent.Leaf().Type != hierarchy.TypeTask {
				return fmt.Errorf("comments live under a task, not a %s", parent.Leaf().Type)
			}
			return nil
		},
	})
}

// ListComments returns the task's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, actorID, taskID int64) ([]*hierarchy.Resource, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeTask, taskID, authz.ActionCommentRead); err != nil {
		return nil, err
	}
	return s.resources.ListChildren(ctx, taskID, hierarchy.TypeComment)
}

// UpdateComment edits a comment's body.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID int64, body string) (*mutation.Result, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", mutation.ErrInvalidChange)
	}
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:       hierarchy.TypeComment,
		ResourceID: commentID,
		Action:     authz.ActionCommentUpdate,
		Change:     mutation.ChangeSet{Fields: map[string]any{"body": body}},
	})
}

// DeleteComment removes a comment, keeping its history.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID int64) error {
	return s.coordinator.Delete(ctx, actorID, hierarchy.TypeComment, commentID, authz.ActionCommentDelete)
}
