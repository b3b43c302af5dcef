package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"super_admin", RoleSuperAdmin, true},
		{"Receptionist", RoleReceptionist, true},
		{"chemical section head", RoleChemicalSectionHead, true},
		{"5", RoleChemicalTester, true},
		{"9", 0, false},
		{"janitor", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestRoleDepartment(t *testing.T) {
	assert.Equal(t, "chemical", RoleChemicalTester.Department())
	assert.Equal(t, "mechanical", RoleMechanicalSectionHead.Department())
	assert.Equal(t, "", RoleReceptionist.Department())
	assert.True(t, RoleMechanicalSectionHead.IsSectionHead())
	assert.False(t, RoleSuperAdmin.IsSectionHead())
}
