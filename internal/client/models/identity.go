// Package models holds the client-side domain types and the wire DTOs of the
// attendance API.
package models

import "strings"

// Role is the account kind the API distinguishes.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	// RoleAny is used by contexts that accept either role.
	RoleAny Role = ""
)

// ParseRole normalises s; ok is false for anything but student/teacher.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	default:
		return "", false
	}
}

// Matches reports whether r satisfies the expected role. RoleAny accepts both.
func (r Role) Matches(expected Role) bool {
	if expected == RoleAny {
		return r == RoleStudent || r == RoleTeacher
	}
	return r == expected
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleTeacher {
		return RoleStudent
	}
	return RoleTeacher
}

func (r Role) String() string {
	if r == RoleAny {
		return "any"
	}
	return string(r)
}

// Identity is the cached user id/role/name used to build fallback requests.
type Identity struct {
	UserID    string
	Role      Role
	FirstName string
	LastName  string
}

// DisplayName prefers "First Last" and falls back to the user id.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.UserID
	}
	return name
}

// IdentityPatch carries the identity fields present in a server response.
// Nil fields are absent and must not overwrite cached values.
type IdentityPatch struct {
	UserID    *string
	Role      *Role
	FirstName *string
	LastName  *string
}

// Empty reports whether the patch carries no field at all.
func (p IdentityPatch) Empty() bool {
	return p.UserID == nil && p.Role == nil && p.FirstName == nil && p.LastName == nil
}

// Apply returns base with the present fields of p applied.
func (p IdentityPatch) Apply(base Identity) Identity {
	if p.UserID != nil {
		base.UserID = *p.UserID
	}
	if p.Role != nil {
		base.Role = *p.Role
	}
	if p.FirstName != nil {
		base.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		base.LastName = *p.LastName
	}
	return base
}
