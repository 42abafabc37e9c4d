/*
errors.go - Error taxonomy for the lifecycle engine

PURPOSE:
  Every engine operation either returns a record or fails with exactly one
  of four kinds. Callers branch on the kind, never on message text.

ERROR KINDS:
  MissingField      required text empty, date absent, leave type unset
  InvalidDateRange  start before today, or end before start
  Forbidden         actor is not allowed to touch this record
  InvalidState      record is not in a state that permits the operation
                    (also used when the store detects a stale read)

RETRY POLICY:
  The engine never retries. InvalidState usually means the caller acted on a
  stale read: re-fetch and try again. The other three need user correction.

USAGE:
  if errors.Is(err, lifecycle.ErrInvalidState) { ... }

  var lerr *lifecycle.Error
  if errors.As(err, &lerr) {
      log.Printf("%s on field %s", lerr.Kind, lerr.Field)
  }

SEE ALSO:
  - validate.go, authorize.go: produce these errors
  - api/errors.go: maps kinds to HTTP status codes
*/
package lifecycle

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidState     = errors.New("invalid state")

	// ErrNotFound is returned by stores when no application has the given ID.
	ErrNotFound = errors.New("leave application not found")

	// ErrConcurrentModification is returned by stores when a compare-and-swap
	// write finds a version other than the one the caller read.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicateID is returned by stores when inserting an existing ID.
	ErrDuplicateID = errors.New("duplicate leave application id")
)

// =============================================================================
// STRUCTURED ERROR - Carries kind and field
// =============================================================================

// ErrorKind discriminates the four engine failures.
type ErrorKind string

const (
	KindMissingField     ErrorKind = "missing_field"
	KindInvalidDateRange ErrorKind = "invalid_date_range"
	KindForbidden        ErrorKind = "forbidden"
	KindInvalidState     ErrorKind = "invalid_state"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingField:
		return ErrMissingField
	case KindInvalidDateRange:
		return ErrInvalidDateRange
	case KindForbidden:
		return ErrForbidden
	default:
		return ErrInvalidState
	}
}

// Error is the engine's discriminated failure. It unwraps to the sentinel for
// its kind and, when present, to the underlying cause.
type Error struct {
	Kind    ErrorKind
	Field   string // offending input field, if any
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind.sentinel(), e.Cause}
	}
	return []error{e.Kind.sentinel()}
}

func missingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field, Message: "is required"}
}

func invalidDateRange(field, msg string) *Error {
	return &Error{Kind: KindInvalidDateRange, Field: field, Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func invalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

// StaleWrite converts a store-level compare-and-swap failure into the
// InvalidState error callers see. The cause is preserved for errors.Is.
func StaleWrite(id string, cause error) error {
	return &Error{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("application %s changed since it was read", id),
		Cause:   cause,
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// KindOf returns the engine error kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind, true
	}
	switch {
	case errors.Is(err, ErrMissingField):
		return KindMissingField, true
	case errors.Is(err, ErrInvalidDateRange):
		return KindInvalidDateRange, true
	case errors.Is(err, ErrForbidden):
		return KindForbidden, true
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState, true
	}
	return "", false
}

// IsRetryable returns true if re-reading the record and retrying may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error needs the user to correct input
// or stop trying.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrForbidden)
}

// IsNotFound returns true if the error indicates a missing application.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
