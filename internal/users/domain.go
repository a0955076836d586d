package users

import "github.com/sliceline/sliceline/internal/authz"

// User is the outward representation of an account. The password hash never
// leaves the repository layer and is deliberately absent here.
type User struct {
	ID    int64             `json:"id"`
	Name  string            `json:"name"`
	Email string            `json:"email"`
	Roles []authz.RoleGrant `json:"roles"`
}

// RoleSpec names a role to grant at registration time. For franchisee grants
// Object carries the franchise name, which is resolved to an id when the
// grant is written.
type RoleSpec struct {
	Role   authz.Role `json:"role"`
	Object string     `json:"object,omitempty"`
}

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Roles    []RoleSpec
}

// Credentials hashes and verifies passwords. Implemented by auth.Credentials;
// an interface here keeps the dependency one-directional.
type Credentials interface {
	Hash(plaintext string) (string, error)
	Compare(hashed, plaintext string) bool
}
