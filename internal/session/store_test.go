package session

import (
	"context"
	"errors"
	"testing"

	"rederly/client/internal/platform/rbac"
	"rederly/client/internal/security"
	"rederly/client/internal/session/domain"
	"rederly/client/internal/session/repository"
)

// failingRepo wraps a MemoryRepository and fails PutAll when putErr is set and Delete when delErr is set.
type failingRepo struct {
	*repository.MemoryRepository
	putErr error
	delErr error
}

func (r *failingRepo) Delete(ctx context.Context, keys ...string) error {
	if r.delErr != nil {
		return r.delErr
	}
	return r.MemoryRepository.Delete(ctx, keys...)
}

func (r *failingRepo) PutAll(ctx context.Context, values map[string]string) error {
	if r.putErr != nil {
		return r.putErr
	}
	return r.MemoryRepository.PutAll(ctx, values)
}

func newTestStore(t *testing.T) (*Store, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	return NewStore(repo, nil, nil), repo
}

func TestStore_SetSessionThenCurrent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if s.IsValid(ctx) {
		t.Fatal("empty store should not be valid")
	}
	if err := s.SetSession(ctx, "tok", domain.RoleProfessor, 7, "Ada Lovelace"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if !s.IsValid(ctx) {
		t.Fatal("store should be valid after SetSession")
	}
	sess, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess.Token != "tok" || sess.UserID != 7 || sess.Username != "Ada Lovelace" || sess.Role != domain.RoleProfessor {
		t.Errorf("Current = %+v", sess)
	}
}

func TestStore_SetSessionRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name   string
		token  string
		role   domain.Role
		userID int
	}{
		{"empty token", "", domain.RoleStudent, 1},
		{"unknown role", "tok", domain.Role("TEACHER"), 1},
		{"negative user", "tok", domain.RoleStudent, -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			err := s.SetSession(context.Background(), tc.token, tc.role, tc.userID, "x")
			if !errors.Is(err, ErrInvalidSession) {
				t.Fatalf("SetSession err = %v, want ErrInvalidSession", err)
			}
			if s.IsValid(context.Background()) {
				t.Error("store should stay invalid")
			}
		})
	}
}

func TestStore_SetSessionFailureRevokesMarker(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryRepository()
	repo := &failingRepo{MemoryRepository: mem}
	s := NewStore(repo, nil, nil)

	// A previous login left a marker behind.
	if err := s.SetSession(ctx, "old", domain.RoleAdmin, 1, "Old"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	boom := errors.New("disk full")
	repo.putErr = boom

	err := s.SetSession(ctx, "new", domain.RoleStudent, 2, "New")
	if !errors.Is(err, boom) {
		t.Fatalf("SetSession err = %v, want %v", err, boom)
	}
	if s.IsValid(ctx) {
		t.Error("marker must be removed after a failed write")
	}
}

func TestStore_SetSessionFailureReportsRevokeFailure(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryRepository()
	repo := &failingRepo{MemoryRepository: mem}
	s := NewStore(repo, nil, nil)
	if err := s.SetSession(ctx, "old", domain.RoleAdmin, 1, "Old"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	putErr := errors.New("disk full")
	delErr := errors.New("read-only file system")
	repo.putErr = putErr
	repo.delErr = delErr

	err := s.SetSession(ctx, "new", domain.RoleStudent, 2, "New")
	if !errors.Is(err, putErr) {
		t.Errorf("SetSession err = %v, want it to wrap %v", err, putErr)
	}
	if !errors.Is(err, delErr) {
		t.Errorf("SetSession err = %v, want it to wrap %v", err, delErr)
	}
}

func TestStore_ClearSessionIsIdempotentAndKeepsRedirect(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)

	if err := s.SetSession(ctx, "tok", domain.RoleStudent, 3, "Sam"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if err := s.RecordPendingRedirect(ctx, "/common/courses/42"); err != nil {
		t.Fatalf("RecordPendingRedirect: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.ClearSession(ctx); err != nil {
			t.Fatalf("ClearSession #%d: %v", i+1, err)
		}
	}
	if s.IsValid(ctx) {
		t.Error("store should be invalid after ClearSession")
	}
	all, _ := repo.GetAll(ctx)
	for _, k := range domain.SessionKeys {
		if _, ok := all[k]; ok {
			t.Errorf("key %q survived ClearSession", k)
		}
	}
	if all[domain.KeyLoginRedirect] != "/common/courses/42" {
		t.Errorf("pending redirect = %q, want kept", all[domain.KeyLoginRedirect])
	}
}

func TestStore_PendingRedirectIsReadOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, ok, err := s.ConsumePendingRedirect(ctx); err != nil || ok {
		t.Fatalf("Consume on empty: ok=%v err=%v", ok, err)
	}
	_ = s.RecordPendingRedirect(ctx, "/common/account")
	_ = s.RecordPendingRedirect(ctx, "/common/courses/42?tab=grades")

	got, ok, err := s.ConsumePendingRedirect(ctx)
	if err != nil || !ok {
		t.Fatalf("Consume: ok=%v err=%v", ok, err)
	}
	if got != "/common/courses/42?tab=grades" {
		t.Errorf("Consume = %q, want the latest path", got)
	}
	if _, ok, _ := s.ConsumePendingRedirect(ctx); ok {
		t.Error("second Consume should find nothing")
	}
}

func TestStore_CurrentInconsistentState(t *testing.T) {
	testCases := []struct {
		name   string
		values map[string]string
	}{
		{"missing role", map[string]string{domain.KeySessionToken: "tok", domain.KeyUserID: "1"}},
		{"unknown role", map[string]string{domain.KeySessionToken: "tok", domain.KeyUserType: "TEACHER", domain.KeyUserID: "1"}},
		{"bad user id", map[string]string{domain.KeySessionToken: "tok", domain.KeyUserType: "STUDENT", domain.KeyUserID: "abc"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s, repo := newTestStore(t)
			_ = repo.PutAll(ctx, tc.values)

			if !s.IsValid(ctx) {
				t.Fatal("marker is present, IsValid should be true")
			}
			if _, err := s.Current(ctx); !errors.Is(err, rbac.ErrSessionInconsistent) {
				t.Errorf("Current err = %v, want ErrSessionInconsistent", err)
			}
		})
	}
}

func TestStore_CurrentWithoutMarker(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)
	_ = repo.PutAll(ctx, map[string]string{domain.KeyUserType: "ADMIN", domain.KeyUserID: "1"})

	sess, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess.Valid() {
		t.Error("session without marker must be invalid regardless of other fields")
	}
}

func TestStore_SealDetectsRoleEdit(t *testing.T) {
	ctx := context.Background()
	sealer, err := security.NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	repo := repository.NewMemoryRepository()
	s := NewStore(repo, sealer, nil)

	if err := s.SetSession(ctx, "tok", domain.RoleStudent, 9, "Sam"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if _, err := s.Current(ctx); err != nil {
		t.Fatalf("Current with intact seal: %v", err)
	}

	_ = repo.PutAll(ctx, map[string]string{domain.KeyUserType: "ADMIN"})
	if _, err := s.Current(ctx); !errors.Is(err, rbac.ErrSessionInconsistent) {
		t.Errorf("Current after role edit err = %v, want ErrSessionInconsistent", err)
	}
}
