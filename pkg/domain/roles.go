package domain

import dErrors "sidesa/pkg/domain-errors"

// Role is the administrative role of a portal operator.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries; direct casting bypasses
// validation.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleOperator   Role = "operator"
)

var validRoles = map[Role]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleOperator:   true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsSuperAdmin reports whether r is the highest-privilege administrative role.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

func (r Role) String() string {
	return string(r)
}
