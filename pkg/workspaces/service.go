package workspaces

import (
	"context"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/mutation"
	"github.com/openboard-dev/openboard/pkg/observability"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// WorkspaceCreator is the storage seam for workspace creation: the workspace
// row, its version-1 revision, and the creator's owner membership commit as
// one transaction.
type WorkspaceCreator interface {
	CreateWorkspace(ctx context.Context, res *hierarchy.Resource, actorID int64) (*revision.Revision, *membership.Membership, error)
}

// Service implements workspace lifecycle and member management.
type Service struct {
	coordinator *mutation.Coordinator
	workspaces  WorkspaceCreator
	members     membership.Store
	invitations membership.InvitationStore
	revisions   revision.Store
	logger      *observability.Logger
}

// NewService creates a workspace service. invitations may be nil when the
// deployment disables invitation flows.
func NewService(coordinator *mutation.Coordinator, workspaces WorkspaceCreator, members membership.Store, invitations membership.InvitationStore, revisions revision.Store, logger *observability.Logger) *Service {
	return &Service{
		coordinator: coordinator,
		workspaces:  workspaces,
		members:     members,
		invitations: invitations,
		revisions:   revisions,
		logger:      logger,
	}
}

// Create makes a new workspace with the actor as its first owner. Any
// authenticated actor may create a workspace; authorization starts applying
// to everything inside it.
func (s *Service) Create(ctx context.Context, actorID int64, name string, fields map[string]any) (*mutation.Result, *membership.Membership, error) {
	if name == "" {
		return nil, nil, fmt.Errorf("%w: workspace name is required", mutation.ErrInvalidChange)
	}

	res := &hierarchy.Resource{
		Type:     hierarchy.TypeWorkspace,
		AuthorID: actorID,
		Name:     name,
		Fields:   fields,
	}
	rev, member, err := s.workspaces.CreateWorkspace(ctx, res, actorID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"workspace_id": res.ID,
		"actor_id":     actorID,
	}).Info("workspace created")

	return &mutation.Result{Resource: res, Revision: rev}, member, nil
}

// Get returns the workspace if the actor is a member.
func (s *Service) Get(ctx context.Context, actorID, workspaceID int64) (*hierarchy.Resource, error) {
	return s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionWorkspaceRead)
}

// Update renames the workspace or changes its fields (e.g. visibility).
func (s *Service) Update(ctx context.Context, actorID, workspaceID int64, change mutation.ChangeSet) (*mutation.Result, error) {
	return s.coordinator.Mutate(ctx, actorID, mutation.Request{
		Type:       hierarchy.TypeWorkspace,
		ResourceID: workspaceID,
		Action:     authz.ActionWorkspaceUpdate,
		Change:     change,
	})
}

// Delete removes the workspace and everything under it. Revision history for
// the deleted resources is retained.
func (s *Service) Delete(ctx context.Context, actorID, workspaceID int64) error {
	return s.coordinator.Delete(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionWorkspaceDelete)
}

// History returns the workspace's revisions, newest first, up to limit.
func (s *Service) History(ctx context.Context, actorID, workspaceID int64, limit int) ([]*revision.Revision, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionWorkspaceRead); err != nil {
		return nil, err
	}
	return collectHistory(ctx, s.revisions, workspaceID, limit)
}

// ListMembers returns the workspace's memberships, visible to any member.
func (s *Service) ListMembers(ctx context.Context, actorID, workspaceID int64) ([]*membership.Membership, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionWorkspaceRead); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, workspaceID)
}

// AddMember grants the target actor a membership directly. Granting owner
// requires the acting member to be an owner.
func (s *Service) AddMember(ctx context.Context, actorID, workspaceID, targetID int64, role membership.Role) (*membership.Membership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", mutation.ErrInvalidChange, role)
	}
	action := authz.ActionMemberInvite
	if role == membership.RoleOwner {
		action = authz.ActionMemberManageOwner
	}
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, action); err != nil {
		return nil, err
	}

	m := &membership.Membership{
		WorkspaceID: workspaceID,
		ActorID:     targetID,
		Role:        role,
		InvitedBy:   &actorID,
	}
	if err := s.members.Add(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetMemberRole changes an existing member's role. Touching an owner
// membership, in either direction, requires the acting member to be an owner;
// demoting the last owner fails with ErrLastOwner.
func (s *Service) SetMemberRole(ctx context.Context, actorID, workspaceID, targetID int64, role membership.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", mutation.ErrInvalidChange, role)
	}
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionMemberUpdateRole); err != nil {
		return err
	}

	current, err := s.members.GetRole(ctx, workspaceID, targetID)
	if err != nil {
		return err
	}
	if current == membership.RoleOwner || role == membership.RoleOwner {
		if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionMemberManageOwner); err != nil {
			return err
		}
	}
	return s.members.SetRole(ctx, workspaceID, targetID, role)
}

// RemoveMember removes a membership. Members may always remove themselves;
// removing anyone else requires manager rank, and removing an owner requires
// owner rank. The last-owner guard holds in every path.
func (s *Service) RemoveMember(ctx context.Context, actorID, workspaceID, targetID int64) error {
	if actorID == targetID {
		// Leaving. Membership is verified by the store lookup below.
		if _, err := s.members.GetRole(ctx, workspaceID, actorID); err != nil {
			return err
		}
		return s.members.Remove(ctx, workspaceID, targetID)
	}

	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionMemberRemove); err != nil {
		return err
	}
	current, err := s.members.GetRole(ctx, workspaceID, targetID)
	if err != nil {
		return err
	}
	if current == membership.RoleOwner {
		if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionMemberManageOwner); err != nil {
			return err
		}
	}
	return s.members.Remove(ctx, workspaceID, targetID)
}

// collectHistory drains up to limit revisions from a history iteration.
func collectHistory(ctx context.Context, store revision.Store, resourceID int64, limit int) ([]*revision.Revision, error) {
	it := revision.History(store, resourceID)
	var revisions []*revision.Revision
	for (limit <= 0 || len(revisions) < limit) && it.Next(ctx) {
		revisions = append(revisions, it.Revision())
	}
	return revisions, it.Err()
}
