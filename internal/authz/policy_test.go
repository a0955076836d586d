package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	assert.False(t, IsAdmin(nil))
	assert.False(t, IsAdmin([]RoleGrant{{Role: RoleDiner}}))
	assert.True(t, IsAdmin([]RoleGrant{{Role: RoleDiner}, {Role: RoleAdmin}}))
}

func TestIsFranchiseAdmin(t *testing.T) {
	tests := []struct {
		name        string
		grants      []RoleGrant
		franchiseID int64
		want        bool
	}{
		{"no grants", nil, 1, false},
		{"diner only", []RoleGrant{{Role: RoleDiner}}, 1, false},
		{"franchisee of target", []RoleGrant{{Role: RoleFranchisee, ObjectID: 1}}, 1, true},
		{"franchisee of other", []RoleGrant{{Role: RoleFranchisee, ObjectID: 2}}, 1, false},
		{"admin overrides scope", []RoleGrant{{Role: RoleAdmin}}, 1, true},
		{"multiple franchises", []RoleGrant{
			{Role: RoleDiner},
			{Role: RoleFranchisee, ObjectID: 3},
			{Role: RoleFranchisee, ObjectID: 7},
		}, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFranchiseAdmin(tt.grants, tt.franchiseID))
		})
	}
}

func TestCanUpdateUser(t *testing.T) {
	diner := []RoleGrant{{Role: RoleDiner}}
	admin := []RoleGrant{{Role: RoleAdmin}}

	assert.True(t, CanUpdateUser(4, diner, 4), "self update")
	assert.False(t, CanUpdateUser(4, diner, 5), "other user")
	assert.True(t, CanUpdateUser(4, admin, 5), "admin updates anyone")
}
