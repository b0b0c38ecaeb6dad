// Package session is the process-wide client session store. All reads and mutations of the
// persisted session go through Store; the backing Repository decides where the keys live.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"rederly/client/internal/logging"
	"rederly/client/internal/platform/rbac"
	"rederly/client/internal/security"
	"rederly/client/internal/session/domain"
	"rederly/client/internal/session/repository"
)

// ErrInvalidSession is returned by SetSession for an empty token, an unknown role or a negative user id.
var ErrInvalidSession = errors.New("session: token, role and non-negative user id are required")

// Store reads and writes the client session through a Repository.
type Store struct {
	repo   repository.Repository
	sealer *security.Sealer
	logger logrus.FieldLogger
}

// NewStore returns a Store over repo. sealer may be nil (no integrity seal); logger may be nil.
func NewStore(repo repository.Repository, sealer *security.Sealer, logger logrus.FieldLogger) *Store {
	return &Store{repo: repo, sealer: sealer, logger: logging.Component(logger, "session")}
}

// SetSession stores a freshly logged-in session in one atomic write.
// On failure the authentication marker is removed so no partial session ever looks valid; if
// that removal fails too, both errors are returned joined.
// The pending redirect is left in place for the login flow to consume.
func (s *Store) SetSession(ctx context.Context, token string, role domain.Role, userID int, username string) error {
	if token == "" || !role.Valid() || userID < 0 {
		return ErrInvalidSession
	}
	values := map[string]string{
		domain.KeySessionToken: token,
		domain.KeyUserType:     string(role),
		domain.KeyUserID:       strconv.Itoa(userID),
		domain.KeyUsername:     username,
	}
	if s.sealer != nil {
		seal, err := s.sealer.Seal(security.SealedFields{Token: token, Role: string(role), UserID: userID, Username: username})
		if err != nil {
			return errors.Join(fmt.Errorf("session: seal: %w", err), s.revokeMarker(ctx))
		}
		values[domain.KeySessionSeal] = seal
	}
	if err := s.repo.PutAll(ctx, values); err != nil {
		return errors.Join(fmt.Errorf("session: store: %w", err), s.revokeMarker(ctx))
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "role": role}).Debug("session stored")
	return nil
}

// revokeMarker removes the marker after a failed write. A failure here may leave an earlier
// login looking valid, so it is returned to the caller as well as logged.
func (s *Store) revokeMarker(ctx context.Context) error {
	if err := s.repo.Delete(ctx, domain.KeySessionToken); err != nil {
		s.logger.WithError(err).Error("revoke session marker after failed write")
		return fmt.Errorf("session: revoke marker: %w", err)
	}
	return nil
}

// ClearSession removes every session field and the authentication marker. Idempotent.
// The pending redirect is not part of the session and is kept.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.repo.Delete(ctx, domain.SessionKeys...); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// IsValid reports whether the authentication marker is present. A repository error counts as absent.
func (s *Store) IsValid(ctx context.Context) bool {
	v, ok, err := s.repo.Get(ctx, domain.KeySessionToken)
	if err != nil {
		s.logger.WithError(err).Warn("read session marker")
		return false
	}
	return ok && v != ""
}

// RecordPendingRedirect stores path as the single place to return to after login, replacing any earlier one.
func (s *Store) RecordPendingRedirect(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := s.repo.PutAll(ctx, map[string]string{domain.KeyLoginRedirect: path}); err != nil {
		return fmt.Errorf("session: record redirect: %w", err)
	}
	return nil
}

// ConsumePendingRedirect returns the pending redirect and clears it. ok is false when none is pending.
func (s *Store) ConsumePendingRedirect(ctx context.Context) (string, bool, error) {
	v, ok, err := s.repo.Get(ctx, domain.KeyLoginRedirect)
	if err != nil {
		return "", false, fmt.Errorf("session: read redirect: %w", err)
	}
	if !ok || v == "" {
		return "", false, nil
	}
	if err := s.repo.Delete(ctx, domain.KeyLoginRedirect); err != nil {
		return "", false, fmt.Errorf("session: clear redirect: %w", err)
	}
	return v, true, nil
}

// Current returns the stored session. An invalid session (no marker) is returned without error
// and reports Valid() == false. A valid marker with a missing or unrecognised role, a malformed
// user id, or a seal mismatch returns rbac.ErrSessionInconsistent.
func (s *Store) Current(ctx context.Context) (*domain.Session, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: read: %w", err)
	}
	sess := &domain.Session{
		Token:           all[domain.KeySessionToken],
		Username:        all[domain.KeyUsername],
		PendingRedirect: all[domain.KeyLoginRedirect],
	}
	if !sess.Valid() {
		return sess, nil
	}

	rawRole, present := all[domain.KeyUserType]
	role, err := rbac.ResolveFromStoredValue(rawRole, present)
	if err != nil {
		return nil, err
	}
	sess.Role = role

	userID, err := strconv.Atoi(all[domain.KeyUserID])
	if err != nil || userID < 0 {
		return nil, fmt.Errorf("%w: user id %q", rbac.ErrSessionInconsistent, all[domain.KeyUserID])
	}
	sess.UserID = userID

	if s.sealer != nil {
		fields := security.SealedFields{Token: sess.Token, Role: rawRole, UserID: userID, Username: sess.Username}
		if err := s.sealer.Verify(all[domain.KeySessionSeal], fields); err != nil {
			s.logger.WithField("user_id", userID).Warn("session seal mismatch")
			return nil, fmt.Errorf("%w: %v", rbac.ErrSessionInconsistent, err)
		}
	}
	return sess, nil
}
