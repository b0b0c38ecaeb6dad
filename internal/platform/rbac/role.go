// Package rbac resolves session roles and gates role-restricted operations.
// Every role decision in the client goes through this package.
package rbac

import (
	"errors"

	"rederly/client/internal/session/domain"
)

// ErrSessionInconsistent is returned when a session carries a valid marker but its stored role is
// missing or unrecognised. It forces an unauthorized transition.
var ErrSessionInconsistent = errors.New("session inconsistent: stored role missing or unrecognized")

// Server role codes returned by the login endpoint.
const (
	ServerCodeStudent   = 0
	ServerCodeProfessor = 1
	ServerCodeAdmin     = 2
)

// ResolveFromServerCode maps the login response roleId to a role.
// Unknown and negative codes resolve to STUDENT, never to an elevated role.
func ResolveFromServerCode(code int) domain.Role {
	switch code {
	case ServerCodeProfessor:
		return domain.RoleProfessor
	case ServerCodeAdmin:
		return domain.RoleAdmin
	default:
		return domain.RoleStudent
	}
}

// ResolveFromStoredValue maps the persisted userType value to a role.
// present is false when the key is absent. Absent or unrecognised values return ErrSessionInconsistent.
func ResolveFromStoredValue(raw string, present bool) (domain.Role, error) {
	if !present {
		return "", ErrSessionInconsistent
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		return "", ErrSessionInconsistent
	}
	return role, nil
}

// IsNonStudent reports whether role may see routes tagged non-student.
func IsNonStudent(role domain.Role) bool {
	return role == domain.RoleProfessor || role == domain.RoleAdmin
}
