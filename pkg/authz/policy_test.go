package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard-dev/openboard/pkg/membership"
)

func TestDecide(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		role     membership.Role
		action   Action
		isAuthor bool
		allowed  bool
		reason   DenyReason
	}{
		// Role ordering: every role at or above the minimum allows, every
		// role below denies.
		{"guest reads board", membership.RoleGuest, ActionBoardRead, false, true, ""},
		{"member reads board", membership.RoleMember, ActionBoardRead, false, true, ""},
		{"member creates task", membership.RoleMember, ActionTaskCreate, false, true, ""},
		{"guest cannot create task", membership.RoleGuest, ActionTaskCreate, false, false, DenyInsufficientRole},
		{"member cannot delete board", membership.RoleMember, ActionBoardDelete, false, false, DenyInsufficientRole},
		{"manager deletes board", membership.RoleManager, ActionBoardDelete, false, true, ""},
		{"owner deletes board", membership.RoleOwner, ActionBoardDelete, false, true, ""},
		{"manager cannot delete workspace", membership.RoleManager, ActionWorkspaceDelete, false, false, DenyInsufficientRole},
		{"owner deletes workspace", membership.RoleOwner, ActionWorkspaceDelete, false, true, ""},
		{"manager cannot manage owners", membership.RoleManager, ActionMemberManageOwner, false, false, DenyInsufficientRole},
		{"owner manages owners", membership.RoleOwner, ActionMemberManageOwner, false, true, ""},

		// Ownership override is an independent OR-branch.
		{"guest author deletes own comment", membership.RoleGuest, ActionCommentDelete, true, true, ""},
		{"guest cannot delete others' comment", membership.RoleGuest, ActionCommentDelete, false, false, DenyInsufficientRole},
		{"manager deletes others' comment via rank", membership.RoleManager, ActionCommentDelete, false, true, ""},
		{"member author edits own task", membership.RoleMember, ActionTaskUpdate, true, true, ""},

		// Authorship grants nothing where no override is declared.
		{"guest author cannot move own task", membership.RoleGuest, ActionTaskMove, true, false, DenyInsufficientRole},

		// Fail closed on unknown input.
		{"unknown action denies", membership.RoleOwner, Action("board:explode"), false, false, DenyUnknownAction},
		{"unknown role denies", membership.Role("superuser"), ActionBoardRead, false, false, DenyInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.role, tt.action, tt.isAuthor)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

func TestDecideRoleOrderingExhaustive(t *testing.T) {
	// For every action, walk all four roles in rank order: once a role
	// allows, every higher role must allow too.
	policy := DefaultPolicy()
	ordered := []membership.Role{
		membership.RoleGuest,
		membership.RoleMember,
		membership.RoleManager,
		membership.RoleOwner,
	}

	for action, rule := range defaultRules() {
		allowedSeen := false
		for _, role := range ordered {
			d := policy.Decide(role, action, false)
			if allowedSeen {
				assert.True(t, d.Allowed, "action %s: role %s below an allowing rank denied", action, role)
			}
			if d.Allowed {
				allowedSeen = true
				assert.True(t, role.AtLeast(rule.MinRole))
			} else {
				assert.Equal(t, rule.MinRole, d.RequiredRole)
				assert.Equal(t, role, d.ActualRole)
			}
		}
		assert.True(t, allowedSeen, "action %s has no allowing role", action)
	}
}

func TestLoadPolicyFile(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("overrides a minimum role", func(t *testing.T) {
		path := writeFile(t, `
actions:
  "board:delete":
    min_role: owner
`)
		policy, err := LoadPolicyFile(path)
		require.NoError(t, err)

		d := policy.Decide(membership.RoleManager, ActionBoardDelete, false)
		assert.False(t, d.Allowed)
		d = policy.Decide(membership.RoleOwner, ActionBoardDelete, false)
		assert.True(t, d.Allowed)

		// Untouched actions keep their defaults.
		d = policy.Decide(membership.RoleMember, ActionTaskCreate, false)
		assert.True(t, d.Allowed)
	})

	t.Run("override replaces the whole rule", func(t *testing.T) {
		// Omitting ownership_override in the file turns it off.
		path := writeFile(t, `
actions:
  "comment:delete":
    min_role: member
`)
		policy, err := LoadPolicyFile(path)
		require.NoError(t, err)

		d := policy.Decide(membership.RoleGuest, ActionCommentDelete, true)
		assert.False(t, d.Allowed)
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		path := writeFile(t, `
actions:
  "widget:frobnicate":
    min_role: owner
`)
		_, err := LoadPolicyFile(path)
		assert.ErrorContains(t, err, "unknown action")
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		path := writeFile(t, `
actions:
  "board:delete":
    min_role: superuser
`)
		_, err := LoadPolicyFile(path)
		assert.ErrorContains(t, err, "invalid role")
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		path := writeFile(t, "actions: [")
		_, err := LoadPolicyFile(path)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicyFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func BenchmarkDecide(b *testing.B) {
	policy := DefaultPolicy()
	for i := 0; i < b.N; i++ {
		policy.Decide(membership.RoleMember, ActionTaskUpdate, i%2 == 0)
	}
}
