// Package security seals the persisted session fields so that edits to the stored role, user id
// or username are detected when the session is read back.
package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sealIssuer = "rederly-client"

var (
	// ErrInvalidSeal is returned when a seal is malformed, signed with another key, or does not match the stored fields.
	ErrInvalidSeal = errors.New("invalid session seal")
	// ErrShortKey is returned when the seal key is shorter than 16 bytes.
	ErrShortKey = errors.New("seal key must be at least 16 bytes")
)

// SealedFields are the session fields covered by a seal.
type SealedFields struct {
	Token    string
	Role     string
	UserID   int
	Username string
}

// SealClaims holds the JWT claims of a session seal.
type SealClaims struct {
	jwt.RegisteredClaims
	Role        string `json:"role"`
	Username    string `json:"username"`
	Fingerprint string `json:"tfp"`
}

// Sealer signs and verifies session seals with HS256.
type Sealer struct {
	key  []byte
	nowF func() time.Time
}

// NewSealer returns a Sealer using key. The key must be at least 16 bytes.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) < 16 {
		return nil, ErrShortKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Sealer{key: k, nowF: time.Now}, nil
}

// Seal returns a compact JWT binding f.
func (s *Sealer) Seal(f SealedFields) (string, error) {
	claims := SealClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.Itoa(f.UserID),
			Issuer:   sealIssuer,
			IssuedAt: jwt.NewNumericDate(s.nowF().UTC()),
		},
		Role:        f.Role,
		Username:    f.Username,
		Fingerprint: TokenFingerprint(f.Token),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// Verify parses seal and checks that it was issued for exactly f.
func (s *Sealer) Verify(seal string, f SealedFields) error {
	token, err := jwt.ParseWithClaims(seal, &SealClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSeal
		}
		return s.key, nil
	}, jwt.WithIssuer(sealIssuer))
	if err != nil {
		return ErrInvalidSeal
	}
	claims, ok := token.Claims.(*SealClaims)
	if !ok || !token.Valid {
		return ErrInvalidSeal
	}
	if claims.Subject != strconv.Itoa(f.UserID) || claims.Role != f.Role || claims.Username != f.Username {
		return ErrInvalidSeal
	}
	if !FingerprintEqual(f.Token, claims.Fingerprint) {
		return ErrInvalidSeal
	}
	return nil
}
