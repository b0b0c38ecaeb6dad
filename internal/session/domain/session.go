package domain

import "strings"

// Fixed keys of the persisted client state. KeySessionToken is the single authentication marker:
// its presence is the only validity signal.
const (
	KeySessionToken  = "sessionToken"
	KeyUserType      = "userType"
	KeyUserID        = "userId"
	KeyUsername      = "username"
	KeyLoginRedirect = "loginRedirectURL"
	KeySessionSeal   = "sessionSeal"
)

// SessionKeys are the keys owned by a login. ClearSession removes exactly these.
var SessionKeys = []string{KeySessionToken, KeyUserType, KeyUserID, KeyUsername, KeySessionSeal}

// Session is the signed-in user's client-side session.
type Session struct {
	Token           string
	UserID          int
	Username        string
	Role            Role
	PendingRedirect string // empty when no redirect is pending
}

// Valid reports whether the authentication marker is present.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Role is the privilege classification of a session.
type Role string

// Roles ordered by privilege. Only set membership is ever checked, never ordering.
const (
	RoleStudent   Role = "STUDENT"
	RoleProfessor Role = "PROFESSOR"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists every canonical role, least privileged first.
var Roles = []Role{RoleStudent, RoleProfessor, RoleAdmin}

// Valid reports whether r is a canonical role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole matches raw case-insensitively against the canonical role names.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}
