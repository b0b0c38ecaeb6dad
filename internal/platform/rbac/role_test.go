package rbac

import (
	"errors"
	"testing"

	"rederly/client/internal/session/domain"
)

func TestResolveFromServerCode(t *testing.T) {
	testCases := []struct {
		name string
		code int
		want domain.Role
	}{
		{"student", 0, domain.RoleStudent},
		{"professor", 1, domain.RoleProfessor},
		{"admin", 2, domain.RoleAdmin},
		{"unknown positive", 3, domain.RoleStudent},
		{"large", 99, domain.RoleStudent},
		{"negative", -1, domain.RoleStudent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveFromServerCode(tc.code); got != tc.want {
				t.Errorf("ResolveFromServerCode(%d) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}

func TestResolveFromStoredValue(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		present bool
		want    domain.Role
		err     error
	}{
		{"admin upper", "ADMIN", true, domain.RoleAdmin, nil},
		{"professor lower", "professor", true, domain.RoleProfessor, nil},
		{"student mixed", "Student", true, domain.RoleStudent, nil},
		{"absent", "", false, "", ErrSessionInconsistent},
		{"present but empty", "", true, "", ErrSessionInconsistent},
		{"unrecognised", "superuser", true, "", ErrSessionInconsistent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveFromStoredValue(tc.raw, tc.present)
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if got != tc.want {
				t.Errorf("role = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsNonStudent(t *testing.T) {
	if IsNonStudent(domain.RoleStudent) {
		t.Error("STUDENT must not be non-student")
	}
	if !IsNonStudent(domain.RoleProfessor) {
		t.Error("PROFESSOR must be non-student")
	}
	if !IsNonStudent(domain.RoleAdmin) {
		t.Error("ADMIN must be non-student")
	}
	if IsNonStudent(domain.Role("")) {
		t.Error("empty role must not be non-student")
	}
}
