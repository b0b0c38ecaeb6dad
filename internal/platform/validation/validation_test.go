package validation

import (
	"errors"
	"testing"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Attempts int    `json:"attempts" validate:"min=-1"`
	Internal string `json:"-" validate:"required"`
}

func TestCheck(t *testing.T) {
	v := New()

	if err := v.Check(signup{Email: "a@b.co", Password: "x", Attempts: -1, Internal: "y"}); err != nil {
		t.Fatalf("valid input: %v", err)
	}

	err := v.Check(signup{Email: "not-an-email", Attempts: -2, Internal: "y"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	testCases := []struct {
		field string
		want  string
	}{
		{"email", "email must be a valid email address"},
		{"password", "password is required"},
		{"attempts", "attempts must be -1 or greater"},
	}
	for _, tc := range testCases {
		if got := verr.Field(tc.field); got != tc.want {
			t.Errorf("Field(%q) = %q, want %q", tc.field, got, tc.want)
		}
	}
	if verr.Field("Internal") != "" || verr.Field("email") == "" {
		t.Errorf("unexpected field set: %v", verr.Fields)
	}
}

func TestError_Message(t *testing.T) {
	if got := (&Error{}).Error(); got != "validation failed" {
		t.Errorf("empty Error() = %q", got)
	}
	e := &Error{Fields: []FieldError{{Field: "a", Error: "bad"}, {Field: "b", Error: "worse"}}}
	if got := e.Error(); got != "a: bad; b: worse" {
		t.Errorf("Error() = %q", got)
	}
}
