// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

// Role is a user's role as reported by the backend. The backend may know more
// roles than listed here; unknown roles never satisfy a role requirement.
type Role string

const (
	RoleUser      Role = "USER"
	RoleVolunteer Role = "VOLUNTEER"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists the roles the client understands, in registration-form order.
var Roles = []Role{RoleUser, RoleVolunteer, RoleAdmin}

// Known reports whether r is one of Roles.
func (r Role) Known() bool {
	for _, k := range Roles {
		if r == k {
			return true
		}
	}
	return false
}

// HasRole reports whether u may access something gated on required.
// An empty requirement admits any authenticated user. Comparison is exact and
// fails closed: a nil user or an unrecognised role never matches.
func HasRole(u *User, required Role) bool {
	if u == nil {
		return false
	}
	if required == "" {
		return true
	}
	return u.Role.Known() && u.Role == required
}
