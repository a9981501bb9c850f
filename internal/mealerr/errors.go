// Package mealerr defines the typed error kinds used across the
// meal-planning pipeline (classifier, planner, resolver, executor,
// session store). Callers should prefer errors.Is/errors.As over string
// comparison.
package mealerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of pipeline error.
type Kind string

const (
	KindAuthRequired       Kind = "auth_required"
	KindAuthFailed         Kind = "auth_failed"
	KindBusySession        Kind = "busy_session"
	KindMalformedPlan      Kind = "malformed_plan"
	KindPlanInvalid        Kind = "plan_invalid"
	KindParameterResolve   Kind = "parameter_resolution"
	KindUnknownTool        Kind = "unknown_tool"
	KindToolFailed         Kind = "tool_failed"
	KindToolTimeout        Kind = "tool_timeout"
	KindSessionExpired     Kind = "session_expired"
	KindSessionOwnership   Kind = "session_ownership"
	KindInternal           Kind = "internal"
)

// Error is a typed pipeline error carrying a Kind for programmatic
// dispatch and an underlying cause for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons against a Kind-only sentinel built
// with New(kind, "").
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err is a pipeline Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
