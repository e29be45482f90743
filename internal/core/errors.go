package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of these.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)

// UserError carries a kind, a message safe to show to the user and an optional cause.
type UserError struct {
	Kind    error
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Invalid returns a validation error with msg.
func Invalid(msg string) error {
	return &UserError{Kind: ErrValidation, Message: msg}
}

// NotFound returns a not-found error naming what, e.g. "Category".
func NotFound(what string) error {
	return &UserError{Kind: ErrNotFound, Message: what + " not found"}
}

// NotFoundMessage returns a not-found error with a custom message.
func NotFoundMessage(msg string) error {
	return &UserError{Kind: ErrNotFound, Message: msg}
}

// Conflict returns a conflict error with msg.
func Conflict(msg string) error {
	return &UserError{Kind: ErrConflict, Message: msg}
}

// Unauthenticated is returned when no valid session is present.
func Unauthenticated() error {
	return &UserError{Kind: ErrUnauthenticated, Message: "Not authenticated"}
}

// Failed wraps an unexpected storage or transport failure of action,
// e.g. Failed("update allocation", err) shows "Failed to update allocation".
func Failed(action string, err error) error {
	return &UserError{Kind: ErrInternal, Message: "Failed to " + action, Err: err}
}

// UserMessage extracts the message to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return "Something went wrong"
}

// Kind returns the kind of err, or ErrInternal for untyped errors.
func Kind(err error) error {
	for _, k := range []error{ErrUnauthenticated, ErrNotFound, ErrValidation, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}
