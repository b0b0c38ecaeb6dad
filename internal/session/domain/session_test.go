package domain

import "testing"

func TestParseRole(t *testing.T) {
	testCases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"STUDENT", RoleStudent, true},
		{"professor", RoleProfessor, true},
		{" Admin ", RoleAdmin, true},
		{"teacher", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := ParseRole(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("role = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSession_Valid(t *testing.T) {
	var nilSession *Session
	if nilSession.Valid() {
		t.Error("nil session should be invalid")
	}
	if (&Session{UserID: 7, Username: "Ada Lovelace", Role: RoleAdmin}).Valid() {
		t.Error("session without token should be invalid regardless of other fields")
	}
	if !(&Session{Token: "tok"}).Valid() {
		t.Error("session with token should be valid")
	}
}
