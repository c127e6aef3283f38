package models

import "strings"

// Role is one of the closed set of account roles
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
)

// AllRoles lists every valid role, highest privilege first
var AllRoles = []Role{RoleAdmin, RoleStaff, RoleStudent}

// roleHierarchy maps a session role to the roles it satisfies
var roleHierarchy = map[Role]map[Role]bool{
	RoleAdmin:   {RoleAdmin: true, RoleStaff: true, RoleStudent: true},
	RoleStaff:   {RoleStaff: true, RoleStudent: true},
	RoleStudent: {RoleStudent: true},
}

// IsValid checks if the role exists in the hierarchy
func (r Role) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Satisfies reports whether a holder of r may act as required.
// Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	return roleHierarchy[r][required]
}

// AllowedRoles returns the roles r satisfies, highest privilege first
func (r Role) AllowedRoles() []Role {
	allowed := make([]Role, 0, len(AllRoles))
	for _, candidate := range AllRoles {
		if r.Satisfies(candidate) {
			allowed = append(allowed, candidate)
		}
	}
	return allowed
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes and validates a role string
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", ErrBadRequest
	}
	return role, nil
}
