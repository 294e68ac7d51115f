package workspaces

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/mutation"
	"github.com/openboard-dev/openboard/pkg/observability"
)

// Invite creates a token invitation for an email address. Inviting as owner
// requires the acting member to be an owner. A zero ttl uses the default.
func (s *Service) Invite(ctx context.Context, actorID, workspaceID int64, email string, role membership.Role, ttl time.Duration) (*membership.Invitation, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", mutation.ErrInvalidChange)
	}
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

	if ttl <= 0 {
		ttl = membership.DefaultInvitationTTL
	}
	inv := &membership.Invitation{
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        role,
		Token:       uuid.NewString(),
		InvitedBy:   actorID,
		ExpiresAt:   time.Now().Add(ttl),
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"workspace_id":  workspaceID,
		"invitation_id": inv.ID,
		"role":          string(role),
	}).Info("invitation created")

	return inv, nil
}

// ListInvitations returns the workspace's pending invitations.
func (s *Service) ListInvitations(ctx context.Context, actorID, workspaceID int64) ([]*membership.Invitation, error) {
	if _, err := s.coordinator.Read(ctx, actorID, hierarchy.TypeWorkspace, workspaceID, authz.ActionMemberInvite); err != nil {
		return nil, err
	}
	return s.invitations.ListInvitations(ctx, workspaceID)
}

// AcceptInvitation redeems a token for the actor. The token is the
// capability; no prior membership is required.
func (s *Service) AcceptInvitation(ctx context.Context, actorID int64, token string) (*membership.Invitation, error) {
	inv, err := s.invitations.AcceptInvitation(ctx, token, actorID)
	if err != nil {
		return nil, err
	}

	// The membership row was inserted beneath the store decorator, so any
	// cached negative lookup for this pair must be dropped here.
	if c, ok := s.members.(membership.CacheInvalidator); ok {
		c.Invalidate(ctx, inv.WorkspaceID, actorID)
	}

	s.logger.WithFields(map[string]interface{}{
		"workspace_id": inv.WorkspaceID,
		"actor_id":     actorID,
		"role":         string(inv.Role),
	}).Info("invitation accepted")

	return inv, nil
}

// CleanupExpiredInvitations deletes unaccepted invitations past their expiry.
func (s *Service) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	deleted, err := s.invitations.DeleteExpiredInvitations(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Infof("deleted %d expired invitations", deleted)
	}
	return deleted, nil
}

// ScheduleInvitationCleanup registers the cleanup on a cron scheduler. The
// caller owns starting and stopping the scheduler.
func (s *Service) ScheduleInvitationCleanup(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		defer observability.RecoverPanic(s.logger, "invitation cleanup")
		if _, err := s.CleanupExpiredInvitations(context.Background()); err != nil {
			s.logger.WithError(err).Error("invitation cleanup failed")
		}
	})
}
