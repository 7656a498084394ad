// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so commands can decide how to present a failure
// without inspecting transport details.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// and plays well with the standard errors.Is / errors.As helpers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// CredentialRejected indicates the backend answered "unauthorized" to a call.
	CredentialRejected Kind = "credential_rejected"
	// ProtocolViolation indicates a success-shaped response missing an expected field.
	ProtocolViolation Kind = "protocol_violation"
	// TransportFailure covers network errors, timeouts and non-auth HTTP errors.
	TransportFailure Kind = "transport_failure"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is matches any *E with the same Kind, so callers can write
// errors.Is(err, errors.New(errors.ProtocolViolation, "")).
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the outermost *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return stderrors.Is(err, &E{Kind: kind})
}
