package authz

import (
	"fmt"

	"github.com/openboard-dev/openboard/pkg/membership"
)

// DenyReason classifies why a decision denied access.
type DenyReason string

const (
	// DenyNotAMember: the actor has no membership on the resolved workspace.
	// Surfaced identically to "not found" so resource existence is not
	// leaked to non-members.
	DenyNotAMember DenyReason = "not_a_member"

	// DenyInsufficientRole: the actor is a member but below the action's
	// minimum role, and no ownership override applies.
	DenyInsufficientRole DenyReason = "insufficient_role"

	// DenyUnknownAction: the action is not in the policy table. Fails
	// closed.
	DenyUnknownAction DenyReason = "unknown_action"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed      bool            `json:"allowed"`
	Reason       DenyReason      `json:"reason,omitempty"`
	RequiredRole membership.Role `json:"required_role,omitempty"`
	ActualRole   membership.Role `json:"actual_role,omitempty"`
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// DenyMembership returns the denial for actors with no membership.
func DenyMembership() Decision {
	return Decision{Allowed: false, Reason: DenyNotAMember}
}

// DenyRole returns the denial for members below the required rank.
func DenyRole(required, actual membership.Role) Decision {
	return Decision{
		Allowed:      false,
		Reason:       DenyInsufficientRole,
		RequiredRole: required,
		ActualRole:   actual,
	}
}

// String renders the decision for logs.
func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	if d.Reason == DenyInsufficientRole {
		return fmt.Sprintf("deny(%s: need %s, have %s)", d.Reason, d.RequiredRole, d.ActualRole)
	}
	return fmt.Sprintf("deny(%s)", d.Reason)
}

// Outcome returns "allow" or "deny" for metric labels.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}
