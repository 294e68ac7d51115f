package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRank(t *testing.T) {
	assert.Greater(t, RoleOwner.Rank(), RoleManager.Rank())
	assert.Greater(t, RoleManager.Rank(), RoleMember.Rank())
	assert.Greater(t, RoleMember.Rank(), RoleGuest.Rank())
	assert.Equal(t, 0, Role("superuser").Rank())
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Role
		want     bool
	}{
		{"owner meets owner", RoleOwner, RoleOwner, true},
		{"owner meets guest", RoleOwner, RoleGuest, true},
		{"manager meets member", RoleManager, RoleMember, true},
		{"member fails manager", RoleMember, RoleManager, false},
		{"guest fails member", RoleGuest, RoleMember, false},
		{"guest meets guest", RoleGuest, RoleGuest, true},
		{"unknown fails everything", Role("superuser"), RoleGuest, false},
		{"empty fails everything", Role(""), RoleGuest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.required))
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleManager, RoleMember, RoleGuest} {
		assert.True(t, role.Valid(), "role %s should be valid", role)
	}
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}
