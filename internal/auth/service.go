// Package auth signs the user in against the backend and seeds the session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"rederly/client/internal/backend"
	"rederly/client/internal/logging"
	"rederly/client/internal/platform/rbac"
	"rederly/client/internal/platform/validation"
	"rederly/client/internal/session/domain"
	"rederly/client/internal/telemetry"
)

// User-facing login failure messages.
const (
	MsgLoginFailed = "Login Failed. Incorrect email and/or password"
	MsgUnverified  = "Your account has not been verified yet. Check your email for the verification link or request a new one."
)

// LoginError is a rejected login. Unverified is set when the account exists but is not verified.
type LoginError struct {
	Message    string
	Unverified bool
	Err        error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Backend is the subset of the backend client used for login.
type Backend interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResult, error)
}

// SessionWriter persists a new session.
type SessionWriter interface {
	SetSession(ctx context.Context, token string, role domain.Role, userID int, username string) error
}

// Navigator decides where a login lands. Implemented by the route guard.
type Navigator interface {
	// CurrentRole fails unless a session is present and its role resolves.
	CurrentRole(ctx context.Context) (domain.Role, error)
	CompleteLogin(ctx context.Context) string
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is a completed login.
type Result struct {
	// Landing is the path to navigate to: the pending redirect or the default landing route.
	Landing string
	// AlreadySignedIn is set when a usable session existed and the backend was not called.
	AlreadySignedIn bool
	UserID          int
	Username        string
	Role            domain.Role
}

// Service performs logins.
type Service struct {
	api      Backend
	sessions SessionWriter
	nav      Navigator
	emitter  telemetry.EventEmitter
	logger   logrus.FieldLogger
	rules    *validation.Validator
}

// NewService returns a login service. emitter may be nil.
func NewService(api Backend, sessions SessionWriter, nav Navigator, emitter telemetry.EventEmitter, logger logrus.FieldLogger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		nav:      nav,
		emitter:  emitter,
		logger:   logging.Component(logger, "auth"),
		rules:    validation.New(),
	}
}

// Login validates creds, signs in and stores the session. A *validation.Error is returned for
// malformed input without calling the backend; a *LoginError for rejected credentials.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Result, error) {
	role, err := s.nav.CurrentRole(ctx)
	if err == nil {
		return &Result{Landing: s.nav.CompleteLogin(ctx), AlreadySignedIn: true, Role: role}, nil
	}
	if errors.Is(err, rbac.ErrSessionInconsistent) {
		s.logger.WithError(err).Info("stored session unusable, signing in again")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := s.rules.Check(creds); err != nil {
		return nil, err
	}

	res, err := s.api.Login(ctx, backend.Credentials{Email: creds.Email, Password: creds.Password})
	if err != nil {
		var authErr *backend.AuthenticationError
		if errors.As(err, &authErr) {
			s.logger.WithField("status", authErr.StatusCode).Info("login rejected")
			if authErr.Unverified() {
				return nil, &LoginError{Message: MsgUnverified, Unverified: true, Err: err}
			}
			return nil, &LoginError{Message: MsgLoginFailed, Err: err}
		}
		return nil, err
	}

	role = rbac.ResolveFromServerCode(res.RoleID)
	username := strings.TrimSpace(res.FirstName + " " + res.LastName)
	if err := s.sessions.SetSession(ctx, res.SessionToken, role, res.UserID, username); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": res.UserID, "role": role})
	log.Info("signed in")
	telemetry.EmitAsync(s.emitter, ctx, telemetry.NewEvent(telemetry.EventIdentify, "auth", map[string]interface{}{
		"userType": role,
		"name":     username,
	}).WithUser(res.UserID, username), log)
	telemetry.EmitAsync(s.emitter, ctx, telemetry.NewEvent(telemetry.EventLogin, "auth", nil).WithUser(res.UserID, username), log)

	return &Result{
		Landing:  s.nav.CompleteLogin(ctx),
		UserID:   res.UserID,
		Username: username,
		Role:     role,
	}, nil
}
