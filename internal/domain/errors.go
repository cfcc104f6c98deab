package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown categories and drafts.
	ErrNotFound = errors.New("not found")

	// ErrLookupNotFound is returned when a postal code does not resolve to an
	// address.
	ErrLookupNotFound = errors.New("postal code not found")

	// ErrUnauthorized is returned when a request carries no valid identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a missing or malformed field. It blocks the
// operation that produced it and is correctable by the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransportError wraps a network or backing-service failure. The operation
// may be retried by repeating the same action.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
