package membership

import (
	"context"
	"errors"
	"time"
)

// DefaultInvitationTTL is how long an invitation stays acceptable when the
// inviter does not specify an expiry.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Invitation is a pending offer of membership, addressed to an email and
// redeemable once by token. Accepting creates the membership with the
// invited role.
type Invitation struct {
	ID          int64      `json:"id"`
	WorkspaceID int64      `json:"workspace_id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	Token       string     `json:"token"`
	InvitedBy   int64      `json:"invited_by"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy  *int64     `json:"accepted_by,omitempty"`
}

// Pending reports whether the invitation can still be accepted.
func (i *Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

var (
	// ErrInvitationNotFound indicates no invitation matches the token.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationExpired indicates the invitation's expiry has passed or it
	// was already accepted.
	ErrInvitationExpired = errors.New("invitation expired or already accepted")
)

// InvitationStore persists invitations. Accept must mark the invitation
// accepted and create the membership in one atomic unit so a token can never
// be redeemed twice.
type InvitationStore interface {
	// CreateInvitation persists a new invitation. ID and CreatedAt are
	// populated on return.
	CreateInvitation(ctx context.Context, inv *Invitation) error

	// GetInvitation returns the invitation for a token, or
	// ErrInvitationNotFound.
	GetInvitation(ctx context.Context, token string) (*Invitation, error)

	// ListInvitations returns the workspace's pending invitations, oldest
	// first.
	ListInvitations(ctx context.Context, workspaceID int64) ([]*Invitation, error)

	// AcceptInvitation redeems the token for the actor: marks it accepted and
	// adds the membership atomically. Returns ErrInvitationNotFound,
	// ErrInvitationExpired, or ErrAlreadyMember.
	AcceptInvitation(ctx context.Context, token string, actorID int64) (*Invitation, error)

	// DeleteExpiredInvitations removes unaccepted invitations whose expiry
	// has passed, returning how many were deleted.
	DeleteExpiredInvitations(ctx context.Context) (int64, error)
}
