package authz

import (
	"github.com/openboard-dev/openboard/pkg/membership"
)

// Action is a named operation with a declared minimum role. The string form
// is resource:verb and doubles as the policy file key and the metric label.
type Action string

const (
	ActionWorkspaceRead   Action = "workspace:read"
	ActionWorkspaceUpdate Action = "workspace:update"
	ActionWorkspaceDelete Action = "workspace:delete"

	ActionMemberInvite     Action = "member:invite"
	ActionMemberUpdateRole Action = "member:update_role"
	ActionMemberRemove     Action = "member:remove"
	// ActionMemberManageOwner covers granting, demoting, or removing an
	// owner membership. Only owners may touch other owners.
	ActionMemberManageOwner Action = "member:manage_owner"

	ActionBoardCreate Action = "board:create"
	ActionBoardRead   Action = "board:read"
	ActionBoardUpdate Action = "board:update"
	ActionBoardDelete Action = "board:delete"
	ActionBoardMove   Action = "board:move"

	ActionTaskCreate Action = "task:create"
	ActionTaskRead   Action = "task:read"
	ActionTaskUpdate Action = "task:update"
	ActionTaskDelete Action = "task:delete"
	ActionTaskMove   Action = "task:move"

	ActionStatusManage     Action = "task_status:manage"
	ActionPriorityManage   Action = "task_priority:manage"
	ActionInitiativeManage Action = "task_initiative:manage"

	ActionCommentCreate Action = "comment:create"
	ActionCommentRead   Action = "comment:read"
	ActionCommentUpdate Action = "comment:update"
	ActionCommentDelete Action = "comment:delete"
)

// Rule declares who may perform an action: any member whose role ranks at or
// above MinRole, or, when OwnershipOverride is set, the author of the target
// resource regardless of rank. The override is an independent OR-branch; it
// never lowers the bar for non-authors.
type Rule struct {
	MinRole           membership.Role `yaml:"min_role"`
	OwnershipOverride bool            `yaml:"ownership_override"`
}

// defaultRules is the canonical minimum-role table. Edits here change the
// authorization behavior of every feature service at once.
func defaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionWorkspaceRead:   {MinRole: membership.RoleGuest},
		ActionWorkspaceUpdate: {MinRole: membership.RoleManager},
		ActionWorkspaceDelete: {MinRole: membership.RoleOwner},

		ActionMemberInvite:      {MinRole: membership.RoleManager},
		ActionMemberUpdateRole:  {MinRole: membership.RoleManager},
		ActionMemberRemove:      {MinRole: membership.RoleManager},
		ActionMemberManageOwner: {MinRole: membership.RoleOwner},

		ActionBoardCreate: {MinRole: membership.RoleMember},
		ActionBoardRead:   {MinRole: membership.RoleGuest},
		ActionBoardUpdate: {MinRole: membership.RoleMember},
		ActionBoardDelete: {MinRole: membership.RoleManager},
		ActionBoardMove:   {MinRole: membership.RoleManager},

		ActionTaskCreate: {MinRole: membership.RoleMember},
		ActionTaskRead:   {MinRole: membership.RoleGuest},
		ActionTaskUpdate: {MinRole: membership.RoleMember, OwnershipOverride: true},
		ActionTaskDelete: {MinRole: membership.RoleMember, OwnershipOverride: true},
		ActionTaskMove:   {MinRole: membership.RoleMember},

		ActionStatusManage:     {MinRole: membership.RoleManager},
		ActionPriorityManage:   {MinRole: membership.RoleManager},
		ActionInitiativeManage: {MinRole: membership.RoleManager},

		ActionCommentCreate: {MinRole: membership.RoleMember},
		ActionCommentRead:   {MinRole: membership.RoleGuest},
		ActionCommentUpdate: {MinRole: membership.RoleManager, OwnershipOverride: true},
		ActionCommentDelete: {MinRole: membership.RoleManager, OwnershipOverride: true},
	}
}
