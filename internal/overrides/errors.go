package overrides

import (
	"errors"
	"fmt"

	"rederly/client/internal/platform/validation"
)

var (
	// ErrBusy is returned when the controller is LOADING or SUBMITTING.
	ErrBusy = errors.New("overrides: a load or submit is already in progress")
	// ErrNotReady is returned by Submit before a target has loaded successfully.
	ErrNotReady = errors.New("overrides: no target loaded")
	// ErrSuperseded is returned by a Load whose result was discarded because a newer Load was issued.
	ErrSuperseded = errors.New("overrides: load superseded by a newer target")
	// ErrTargetMismatch is returned when the submitted form is for the other target kind.
	ErrTargetMismatch = errors.New("overrides: form does not match the loaded target")
	// ErrInvalidTarget is returned for a target with a non-positive id or a negative user id.
	ErrInvalidTarget = errors.New("overrides: invalid target")
)

// ValidationError lists the form fields that failed validation. It is raised before any network call.
type ValidationError = validation.Error

// FieldError is one failing form field.
type FieldError = validation.FieldError

// AmbiguousOverrideError is returned when the server reports more than one override record for
// the same (target, user). The form is left unpopulated from server data.
type AmbiguousOverrideError struct {
	Target Target
	UserID int
	Count  int
}

func (e *AmbiguousOverrideError) Error() string {
	return fmt.Sprintf("overrides: %d override records for %s %d and user %d, expected at most one",
		e.Count, e.Target.Kind(), e.Target.ID(), e.UserID)
}
