package membership

import (
	"context"
	"errors"
	"time"
)

// Role represents workspace-level roles, totally ordered by rank.
type Role string

const (
	RoleOwner   Role = "owner"   // Full control, cannot be removed if last
	RoleManager Role = "manager" // Can manage boards and members
	RoleMember  Role = "member"  // Can create and edit tasks
	RoleGuest   Role = "guest"   // Read-only access
)

// roleRanks orders roles for comparison. Higher rank means more access.
var roleRanks = map[Role]int{
	RoleGuest:   1,
	RoleMember:  2,
	RoleManager: 3,
	RoleOwner:   4,
}

// Rank returns the numeric rank of the role, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return roleRanks[r] != 0
}

// AtLeast reports whether the role ranks at or above the required role.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(required Role) bool {
	rank := r.Rank()
	return rank != 0 && rank >= required.Rank()
}

// Membership ties one actor to one workspace with exactly one role.
type Membership struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	ActorID     int64     `json:"actor_id"`
	Role        Role      `json:"role"`
	InvitedBy   *int64    `json:"invited_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	// ErrNotAMember indicates the actor has no membership on the workspace.
	ErrNotAMember = errors.New("actor is not a member of the workspace")

	// ErrLastOwner indicates the mutation would leave the workspace without
	// an owner. The membership set is unchanged when this is returned.
	ErrLastOwner = errors.New("workspace must retain at least one owner")

	// ErrAlreadyMember indicates the actor already has a membership.
	ErrAlreadyMember = errors.New("actor is already a member of the workspace")
)

// Store provides membership persistence. Implementations enforce the
// last-owner invariant atomically: SetRole and Remove re-validate the owner
// count inside the same transaction as the write.
type Store interface {
	// GetRole returns the actor's role on the workspace, or ErrNotAMember.
	GetRole(ctx context.Context, workspaceID, actorID int64) (Role, error)

	// ListMembers returns all memberships for a workspace, oldest first.
	ListMembers(ctx context.Context, workspaceID int64) ([]*Membership, error)

	// Add creates a membership. Returns ErrAlreadyMember on duplicates.
	Add(ctx context.Context, m *Membership) error

	// SetRole changes an existing member's role. Demoting the last owner
	// fails with ErrLastOwner; a missing membership with ErrNotAMember.
	SetRole(ctx context.Context, workspaceID, actorID int64, role Role) error

	// Remove deletes a membership. Removing the last owner fails with
	// ErrLastOwner; a missing membership with ErrNotAMember.
	Remove(ctx context.Context, workspaceID, actorID int64) error
}
