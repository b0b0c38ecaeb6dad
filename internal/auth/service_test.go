package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"rederly/client/internal/backend"
	"rederly/client/internal/guard"
	"rederly/client/internal/platform/validation"
	"rederly/client/internal/session"
	"rederly/client/internal/session/domain"
	"rederly/client/internal/session/repository"
	"rederly/client/internal/telemetry"
)

type mockBackend struct {
	result *backend.LoginResult
	err    error
	calls  int
	creds  backend.Credentials
}

func (m *mockBackend) Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResult, error) {
	m.calls++
	m.creds = creds
	return m.result, m.err
}

type captureEmitter struct {
	mu     sync.Mutex
	events []*telemetry.Event
}

func (c *captureEmitter) Emit(ctx context.Context, e *telemetry.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func newTestService(api Backend, emitter telemetry.EventEmitter) (*Service, *session.Store) {
	store := session.NewStore(repository.NewMemoryRepository(), nil, nil)
	g := guard.New(store, nil, nil, nil, nil)
	return NewService(api, store, g, emitter, nil), store
}

func professorLogin() *mockBackend {
	return &mockBackend{result: &backend.LoginResult{RoleID: 1, UserID: 42, FirstName: "Grace", LastName: "Hopper", SessionToken: "tok-42"}}
}

func TestLogin_Success(t *testing.T) {
	api := professorLogin()
	emitter := &captureEmitter{}
	svc, store := newTestService(api, emitter)

	res, err := svc.Login(context.Background(), Credentials{Email: " grace@example.edu ", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Landing != guard.DefaultLanding || res.AlreadySignedIn {
		t.Errorf("result = %+v", res)
	}
	if api.creds.Email != "grace@example.edu" {
		t.Errorf("email sent = %q, want trimmed", api.creds.Email)
	}

	s, err := store.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s.Token != "tok-42" || s.UserID != 42 || s.Username != "Grace Hopper" || s.Role != domain.RoleProfessor {
		t.Errorf("session = %+v", s)
	}

	telemetry.Drain(time.Second)
	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	types := map[string]bool{}
	for _, e := range emitter.events {
		types[e.EventType] = true
		if e.UserID != 42 {
			t.Errorf("event %s UserID = %d, want 42", e.EventType, e.UserID)
		}
	}
	if !types[telemetry.EventIdentify] || !types[telemetry.EventLogin] {
		t.Errorf("events = %v, want identify and login", types)
	}
}

func TestLogin_ConsumesPendingRedirect(t *testing.T) {
	svc, store := newTestService(professorLogin(), nil)
	if err := store.RecordPendingRedirect(context.Background(), "/common/courses/42"); err != nil {
		t.Fatalf("RecordPendingRedirect: %v", err)
	}

	res, err := svc.Login(context.Background(), Credentials{Email: "grace@example.edu", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Landing != "/common/courses/42" {
		t.Errorf("Landing = %q, want pending redirect", res.Landing)
	}
	if _, ok, _ := store.ConsumePendingRedirect(context.Background()); ok {
		t.Error("pending redirect should be consumed")
	}
}

func TestLogin_AlreadySignedIn(t *testing.T) {
	api := professorLogin()
	svc, store := newTestService(api, nil)
	if err := store.SetSession(context.Background(), "tok", domain.RoleStudent, 7, "Ada Lovelace"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	res, err := svc.Login(context.Background(), Credentials{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.AlreadySignedIn || res.Landing != guard.DefaultLanding || res.Role != domain.RoleStudent {
		t.Errorf("result = %+v", res)
	}
	if api.calls != 0 {
		t.Errorf("backend calls = %d, want 0", api.calls)
	}
}

func TestLogin_InconsistentSessionSignsInAgain(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	if err := repo.PutAll(ctx, map[string]string{
		domain.KeySessionToken: "stale",
		domain.KeyUserType:     "TEACHER",
		domain.KeyUserID:       "7",
	}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	store := session.NewStore(repo, nil, nil)
	api := professorLogin()
	svc := NewService(api, store, guard.New(store, nil, nil, nil, nil), nil, nil)

	res, err := svc.Login(ctx, Credentials{Email: "grace@example.edu", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AlreadySignedIn {
		t.Error("an inconsistent session must not short-circuit login")
	}
	if api.calls != 1 {
		t.Errorf("backend calls = %d, want 1", api.calls)
	}
	s, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s.Token != "tok-42" || s.Role != domain.RoleProfessor {
		t.Errorf("session = %+v", s)
	}
}

func TestLogin_InvalidInput(t *testing.T) {
	testCases := []struct {
		name  string
		creds Credentials
		field string
	}{
		{"bad email", Credentials{Email: "grace", Password: "pw"}, "email"},
		{"empty email", Credentials{Password: "pw"}, "email"},
		{"empty password", Credentials{Email: "grace@example.edu"}, "password"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := professorLogin()
			svc, _ := newTestService(api, nil)
			_, err := svc.Login(context.Background(), tc.creds)
			var verr *validation.Error
			if !errors.As(err, &verr) || verr.Field(tc.field) == "" {
				t.Fatalf("err = %v, want validation error on %s", err, tc.field)
			}
			if api.calls != 0 {
				t.Error("invalid input must not reach the backend")
			}
		})
	}
}

func TestLogin_Rejected(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		message    string
		unverified bool
	}{
		{"wrong password", http.StatusUnauthorized, MsgLoginFailed, false},
		{"unverified account", http.StatusForbidden, MsgUnverified, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := &mockBackend{err: &backend.AuthenticationError{StatusCode: tc.status, Message: "server text"}}
			svc, store := newTestService(api, nil)

			_, err := svc.Login(context.Background(), Credentials{Email: "grace@example.edu", Password: "pw"})
			var lerr *LoginError
			if !errors.As(err, &lerr) {
				t.Fatalf("err = %v, want *LoginError", err)
			}
			if lerr.Message != tc.message || lerr.Unverified != tc.unverified {
				t.Errorf("LoginError = %+v", lerr)
			}
			if store.IsValid(context.Background()) {
				t.Error("rejected login must not create a session")
			}
		})
	}
}

func TestLogin_NetworkErrorPassesThrough(t *testing.T) {
	api := &mockBackend{err: &backend.NetworkError{Op: "POST /users/login", Err: errors.New("dial tcp: refused")}}
	svc, _ := newTestService(api, nil)

	_, err := svc.Login(context.Background(), Credentials{Email: "grace@example.edu", Password: "pw"})
	if !backend.IsNetwork(err) {
		t.Errorf("err = %v, want network error", err)
	}
}

func TestLogin_UnknownRoleCodeIsStudent(t *testing.T) {
	api := &mockBackend{result: &backend.LoginResult{RoleID: 0, UserID: 7, FirstName: "Ada", LastName: "Lovelace", SessionToken: "tok"}}
	svc, _ := newTestService(api, nil)

	res, err := svc.Login(context.Background(), Credentials{Email: "ada@example.edu", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Role != domain.RoleStudent {
		t.Errorf("Role = %s, want STUDENT", res.Role)
	}
}
