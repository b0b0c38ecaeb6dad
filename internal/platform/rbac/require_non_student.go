package rbac

import (
	"context"
	"errors"

	"rederly/client/internal/session/domain"
)

var (
	// ErrUnauthenticated is returned when there is no valid session.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrForbidden is returned when the session role may not perform the operation.
	ErrForbidden = errors.New("professor or admin role required")
)

// SessionReader returns the current session. Implemented by the session store.
type SessionReader interface {
	Current(ctx context.Context) (*domain.Session, error)
}

// RequireNonStudent ensures the caller is signed in with a PROFESSOR or ADMIN role.
// Returns the session on success; ErrUnauthenticated, ErrSessionInconsistent or ErrForbidden on failure.
func RequireNonStudent(ctx context.Context, reader SessionReader) (*domain.Session, error) {
	s, err := RequireSession(ctx, reader)
	if err != nil {
		return nil, err
	}
	if !IsNonStudent(s.Role) {
		return nil, ErrForbidden
	}
	return s, nil
}

// RequireSession ensures the caller is signed in with a resolvable role (any role).
func RequireSession(ctx context.Context, reader SessionReader) (*domain.Session, error) {
	s, err := reader.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, ErrUnauthenticated
	}
	if !s.Role.Valid() {
		return nil, ErrSessionInconsistent
	}
	return s, nil
}
