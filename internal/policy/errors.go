package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested policy does not exist.
	ErrNotFound = errors.New("policy: not found")
	// ErrDuplicateName indicates a policy with the same name already exists.
	ErrDuplicateName = errors.New("policy: duplicate name")

	// ErrActorInactive is the precondition failure for a deactivated
	// actor. Callers surface it as access denied, not as a system error.
	ErrActorInactive = errors.New("policy: actor is inactive")
	// ErrResourceUnavailable is the precondition failure for a
	// soft-deleted resource.
	ErrResourceUnavailable = errors.New("policy: resource is unavailable")
)

// ValidationError reports why a record could not be constructed or
// transformed. It is always caller-correctable and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy: invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrecondition reports whether err is one of the evaluator
// precondition failures.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrActorInactive) || errors.Is(err, ErrResourceUnavailable)
}
