// Package guard decides, on every navigation, whether a route renders, redirects to login, or is
// hidden for the session's role. All role filtering of routes and menu entries goes through RoutesFor.
package guard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"rederly/client/internal/backend"
	"rederly/client/internal/logging"
	"rederly/client/internal/platform/rbac"
	"rederly/client/internal/policy/engine"
	"rederly/client/internal/session/domain"
)

// State is the guard's position in its per-navigation state machine.
type State string

// Guard states.
const (
	StateChecking     State = "CHECKING"
	StateAuthorized   State = "AUTHORIZED"
	StateUnauthorized State = "UNAUTHORIZED"
)

const (
	// LoginPath is where unauthorized navigation is sent.
	LoginPath = "/"
	// DefaultLanding is where a login lands when no redirect is pending.
	DefaultLanding = BasePath + "/courses"
)

var (
	// ErrNoSession is the reason for an unauthorized decision caused by a missing authentication marker.
	ErrNoSession = errors.New("no session")
	// ErrUnknownRoute is returned by Table.URL for a name not in the table.
	ErrUnknownRoute = errors.New("unknown route")
)

// SessionStore is the part of the session store the guard uses.
type SessionStore interface {
	IsValid(ctx context.Context) bool
	Current(ctx context.Context) (*domain.Session, error)
	ClearSession(ctx context.Context) error
	RecordPendingRedirect(ctx context.Context, path string) error
	ConsumePendingRedirect(ctx context.Context) (string, bool, error)
}

// LogoutClient performs the remote logout call.
type LogoutClient interface {
	Logout(ctx context.Context) error
}

// Metrics records guard decisions.
type Metrics interface {
	RecordGuardDecision(ctx context.Context, state, route string)
}

// Decision is the outcome of one navigation check.
type Decision struct {
	State State
	// Path is the requested path, query included.
	Path string
	// RedirectTo is set for UNAUTHORIZED decisions.
	RedirectTo string
	// Reason explains an UNAUTHORIZED decision: ErrNoSession, rbac.ErrSessionInconsistent,
	// a backend authentication error or a store error.
	Reason error
	Role   domain.Role
	// Routes is the guarded route set for Role. Empty unless AUTHORIZED.
	Routes []Route
	// Match is the matched route when it exists in Routes; nil means "page not found".
	Match *Match
}

// Found reports whether the requested path resolved to a route visible to the session.
func (d Decision) Found() bool {
	return d.State == StateAuthorized && d.Match != nil
}

// Guard evaluates navigation against the session store and the route policy.
type Guard struct {
	store     SessionStore
	logout    LogoutClient
	evaluator engine.RouteEvaluator
	table     *Table
	metrics   Metrics
	logger    logrus.FieldLogger

	mu    sync.Mutex
	state State
}

// New returns a Guard over DefaultRoutes. logout, evaluator, metrics and logger may be nil;
// a nil evaluator applies the built-in role rule.
func New(store SessionStore, logout LogoutClient, evaluator engine.RouteEvaluator, metrics Metrics, logger logrus.FieldLogger) *Guard {
	return NewWithTable(store, logout, evaluator, NewTable(DefaultRoutes), metrics, logger)
}

// NewWithTable is New with a custom route table.
func NewWithTable(store SessionStore, logout LogoutClient, evaluator engine.RouteEvaluator, table *Table, metrics Metrics, logger logrus.FieldLogger) *Guard {
	if evaluator == nil {
		evaluator = engine.RuleEvaluator{}
	}
	return &Guard{
		store:     store,
		logout:    logout,
		evaluator: evaluator,
		table:     table,
		metrics:   metrics,
		logger:    logging.Component(logger, "guard"),
		state:     StateChecking,
	}
}

// Table returns the guard's route table.
func (g *Guard) Table() *Table {
	return g.table
}

// State returns the state reached by the last Evaluate or PerformLogout.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Evaluate runs one navigation check for path (path plus optional query).
// An invalid or inconsistent session records path as the pending redirect, clears stale
// session remnants and redirects to LoginPath; no route content is returned.
func (g *Guard) Evaluate(ctx context.Context, path string) Decision {
	g.setState(StateChecking)

	if !g.store.IsValid(ctx) {
		return g.unauthorized(ctx, path, ErrNoSession)
	}
	sess, err := g.store.Current(ctx)
	if err != nil {
		return g.unauthorized(ctx, path, err)
	}
	if !sess.Valid() {
		return g.unauthorized(ctx, path, ErrNoSession)
	}

	d := Decision{
		State:  StateAuthorized,
		Path:   path,
		Role:   sess.Role,
		Routes: g.RoutesFor(ctx, sess.Role),
	}
	routeName := ""
	if m, ok := g.table.Match(path); ok && containsRoute(d.Routes, m.Route.Name) {
		d.Match = m
		routeName = m.Route.Name
	}
	g.setState(StateAuthorized)
	g.record(ctx, d.State, routeName)
	g.logger.WithFields(logrus.Fields{"path": path, "role": sess.Role, "route": routeName}).Debug("navigation authorized")
	return d
}

func (g *Guard) unauthorized(ctx context.Context, path string, reason error) Decision {
	log := g.logger.WithField("path", path)
	if errors.Is(reason, rbac.ErrSessionInconsistent) {
		log.WithError(reason).Warn("inconsistent session state, forcing login")
	} else {
		log.WithError(reason).Info("no valid session, redirecting to login")
	}
	if err := g.store.ClearSession(ctx); err != nil {
		log.WithError(err).Error("clear stale session")
	}
	if path != "" && path != LoginPath {
		if err := g.store.RecordPendingRedirect(ctx, path); err != nil {
			log.WithError(err).Error("record pending redirect")
		}
	}
	g.setState(StateUnauthorized)
	g.record(ctx, StateUnauthorized, "")
	return Decision{State: StateUnauthorized, Path: path, RedirectTo: LoginPath, Reason: reason}
}

func (g *Guard) record(ctx context.Context, s State, route string) {
	if g.metrics != nil {
		g.metrics.RecordGuardDecision(ctx, string(s), route)
	}
}

// Invalidate forces the UNAUTHORIZED transition for a session found unusable outside of
// Evaluate: the session is cleared and path, when set, becomes the pending redirect.
func (g *Guard) Invalidate(ctx context.Context, path string, reason error) Decision {
	g.setState(StateChecking)
	return g.unauthorized(ctx, path, reason)
}

// ForcesLogin reports whether err means the session can no longer be used: the backend
// rejected it or the stored state is inconsistent.
func ForcesLogin(err error) bool {
	return backend.IsAuthentication(err) || errors.Is(err, rbac.ErrSessionInconsistent)
}

// HandleError invalidates the session when err forces a new login and reports whether it did.
func (g *Guard) HandleError(ctx context.Context, path string, err error) bool {
	if err == nil || !ForcesLogin(err) {
		return false
	}
	g.Invalidate(ctx, path, err)
	return true
}

// GuardedRoutes returns the routes navigable for the current session; empty when the session is
// invalid or inconsistent.
func (g *Guard) GuardedRoutes(ctx context.Context) []Route {
	role, err := g.CurrentRole(ctx)
	if err != nil {
		return nil
	}
	return g.RoutesFor(ctx, role)
}

// RoutesFor filters the route table for role. PROFESSOR and ADMIN get every route and STUDENT
// never gets a non-student route, whatever the route policy answers; the policy can only narrow
// the untagged routes shown to STUDENT. An unknown role gets no routes.
func (g *Guard) RoutesFor(ctx context.Context, role domain.Role) []Route {
	if !role.Valid() {
		return nil
	}
	if rbac.IsNonStudent(role) {
		return g.table.Routes()
	}
	var out []Route
	for _, r := range g.table.Routes() {
		if r.NonStudent {
			continue
		}
		if g.evaluator.Visible(ctx, role, r.Facts()) {
			out = append(out, r)
		}
	}
	return out
}

// IsAuthenticated reports whether the session marker is present.
func (g *Guard) IsAuthenticated(ctx context.Context) bool {
	return g.store.IsValid(ctx)
}

// CurrentRole returns the session role, rbac.ErrUnauthenticated without a session, or
// rbac.ErrSessionInconsistent when the stored role cannot be resolved.
func (g *Guard) CurrentRole(ctx context.Context) (domain.Role, error) {
	if !g.store.IsValid(ctx) {
		return "", rbac.ErrUnauthenticated
	}
	sess, err := rbac.RequireSession(ctx, g.store)
	if err != nil {
		return "", err
	}
	return sess.Role, nil
}

// PerformLogout calls the remote logout, logging and swallowing any failure, then clears the
// session. No pending redirect is recorded.
func (g *Guard) PerformLogout(ctx context.Context) Decision {
	if g.logout != nil {
		if err := g.logout.Logout(ctx); err != nil {
			g.logger.WithError(err).Error("error logging out")
		}
	}
	if err := g.store.ClearSession(ctx); err != nil {
		g.logger.WithError(err).Error("clear session on logout")
	}
	g.setState(StateUnauthorized)
	g.record(ctx, StateUnauthorized, "")
	return Decision{State: StateUnauthorized, RedirectTo: LoginPath}
}

// CompleteLogin returns where a successful login navigates: the pending redirect, consumed
// read-once, or DefaultLanding. Pending values that are not local paths are discarded.
func (g *Guard) CompleteLogin(ctx context.Context) string {
	path, ok, err := g.store.ConsumePendingRedirect(ctx)
	if err != nil {
		g.logger.WithError(err).Warn("read pending redirect")
		return DefaultLanding
	}
	if !ok || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || path == LoginPath {
		return DefaultLanding
	}
	return path
}

func containsRoute(routes []Route, name string) bool {
	for _, r := range routes {
		if r.Name == name {
			return true
		}
	}
	return false
}
