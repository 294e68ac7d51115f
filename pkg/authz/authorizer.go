package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/membership"
)

// RoleLookup is the single I/O dependency of the authorizer. Satisfied by
// membership.Store and membership.CachedStore.
type RoleLookup interface {
	GetRole(ctx context.Context, workspaceID, actorID int64) (membership.Role, error)
}

// Authorizer combines the role lookup with the policy table. The decision
// itself is a pure function of (role, action, isAuthor); the only query is
// the actor's role on the chain's own workspace, which is what keeps
// workspace A memberships from ever granting access under workspace B.
type Authorizer struct {
	roles  RoleLookup
	policy Source
}

// NewAuthorizer creates an authorizer.
func NewAuthorizer(roles RoleLookup, policy Source) *Authorizer {
	return &Authorizer{roles: roles, policy: policy}
}

// Authorize decides whether the actor may perform the action on the chain's
// leaf resource. The returned error is reserved for infrastructure failures;
// every access outcome, including "not a member", is a Decision.
func (a *Authorizer) Authorize(ctx context.Context, actorID int64, chain hierarchy.Chain, action Action) (Decision, error) {
	if len(chain) == 0 {
		return Decision{}, fmt.Errorf("cannot authorize an empty chain")
	}
	return a.authorize(ctx, actorID, chain.Workspace().ID, chain.Leaf(), action)
}

// AuthorizeMove decides a cross-workspace re-parenting: the actor must be
// allowed on both the source chain and the destination chain. A partial
// allowance is a denial; the first denial encountered is returned.
func (a *Authorizer) AuthorizeMove(ctx context.Context, actorID int64, src, dst hierarchy.Chain, action Action) (Decision, error) {
	if len(src) == 0 || len(dst) == 0 {
		return Decision{}, fmt.Errorf("cannot authorize a move with an empty chain")
	}

	decision, err := a.authorize(ctx, actorID, src.Workspace().ID, src.Leaf(), action)
	if err != nil || !decision.Allowed {
		return decision, err
	}
	// Ownership of the moved resource carries no weight on the destination
	// side: the actor needs rank there.
	return a.authorize(ctx, actorID, dst.Workspace().ID, nil, action)
}

func (a *Authorizer) authorize(ctx context.Context, actorID, workspaceID int64, leaf *hierarchy.Resource, action Action) (Decision, error) {
	role, err := a.roles.GetRole(ctx, workspaceID, actorID)
	if err != nil {
		if errors.Is(err, membership.ErrNotAMember) {
			return DenyMembership(), nil
		}
		return Decision{}, fmt.Errorf("failed to look up role for actor %d on workspace %d: %w", actorID, workspaceID, err)
	}

	isAuthor := leaf != nil && leaf.AuthorID == actorID
	return a.policy.Current().Decide(role, action, isAuthor), nil
}
