package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthenticationError is returned for 401 and 403 responses.
type AuthenticationError struct {
	StatusCode int
	Message    string
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: authentication failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: authentication failed (%d)", e.StatusCode)
}

// Unverified reports whether the account exists but its email is not verified (403).
func (e *AuthenticationError) Unverified() bool {
	return e.StatusCode == http.StatusForbidden
}

// NetworkError wraps a transport failure: the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-authentication error response. Message is the server's message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend: request failed with status %d", e.StatusCode)
}

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
