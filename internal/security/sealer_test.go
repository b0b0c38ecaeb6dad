package security

import (
	"errors"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewSealer_ShortKey(t *testing.T) {
	if _, err := NewSealer([]byte("short")); !errors.Is(err, ErrShortKey) {
		t.Fatalf("NewSealer err = %v, want ErrShortKey", err)
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer([]byte(testKey))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	f := SealedFields{Token: "tok", Role: "PROFESSOR", UserID: 7, Username: "Ada Lovelace"}
	seal, err := s.Seal(f)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if seal == "" {
		t.Fatal("seal is empty")
	}
	if err := s.Verify(seal, f); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestSealer_DetectsTampering(t *testing.T) {
	s, _ := NewSealer([]byte(testKey))
	f := SealedFields{Token: "tok", Role: "STUDENT", UserID: 7, Username: "Ada Lovelace"}
	seal, err := s.Seal(f)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(SealedFields) SealedFields
	}{
		{"elevated role", func(f SealedFields) SealedFields { f.Role = "ADMIN"; return f }},
		{"other user", func(f SealedFields) SealedFields { f.UserID = 8; return f }},
		{"renamed", func(f SealedFields) SealedFields { f.Username = "Mallory"; return f }},
		{"swapped token", func(f SealedFields) SealedFields { f.Token = "stolen"; return f }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Verify(seal, tc.mutate(f)); !errors.Is(err, ErrInvalidSeal) {
				t.Errorf("Verify err = %v, want ErrInvalidSeal", err)
			}
		})
	}
}

func TestSealer_RejectsForeignKeyAndGarbage(t *testing.T) {
	s1, _ := NewSealer([]byte(testKey))
	s2, _ := NewSealer([]byte("fedcba9876543210fedcba9876543210"))
	f := SealedFields{Token: "tok", Role: "ADMIN", UserID: 1, Username: "Root"}
	seal, err := s2.Seal(f)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := s1.Verify(seal, f); !errors.Is(err, ErrInvalidSeal) {
		t.Errorf("Verify foreign seal err = %v, want ErrInvalidSeal", err)
	}
	if err := s1.Verify("not.a.jwt", f); !errors.Is(err, ErrInvalidSeal) {
		t.Errorf("Verify garbage err = %v, want ErrInvalidSeal", err)
	}
}
