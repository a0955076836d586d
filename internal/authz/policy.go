// Package authz holds the pure role and permission predicates. Nothing here
// performs I/O; callers pass the verified role grants explicitly.
package authz

// Role is a coarse permission grouping attached to a user.
type Role string

const (
	// RoleAdmin is the platform operator role.
	RoleAdmin Role = "admin"
	// RoleFranchisee scopes a user to administer one franchise.
	RoleFranchisee Role = "franchisee"
	// RoleDiner is the default customer role.
	RoleDiner Role = "diner"
)

// RoleGrant pairs a role with the resource it is scoped to. ObjectID is the
// franchise id for franchisee grants and zero otherwise.
type RoleGrant struct {
	Role     Role  `json:"role"`
	ObjectID int64 `json:"objectId,omitempty"`
}

// HasRole reports whether any grant carries the given role, regardless of
// scope.
func HasRole(grants []RoleGrant, role Role) bool {
	for _, grant := range grants {
		if grant.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the grants include the platform admin role.
func IsAdmin(grants []RoleGrant) bool {
	return HasRole(grants, RoleAdmin)
}

// IsFranchiseAdmin reports whether the caller may administer the given
// franchise: either a franchisee grant scoped to it, or platform admin.
func IsFranchiseAdmin(grants []RoleGrant, franchiseID int64) bool {
	if IsAdmin(grants) {
		return true
	}
	for _, grant := range grants {
		if grant.Role == RoleFranchisee && grant.ObjectID == franchiseID {
			return true
		}
	}
	return false
}

// CanUpdateUser reports whether the caller may update the target user's
// account: the user themselves, or a platform admin.
func CanUpdateUser(callerID int64, grants []RoleGrant, targetID int64) bool {
	return callerID == targetID || IsAdmin(grants)
}
