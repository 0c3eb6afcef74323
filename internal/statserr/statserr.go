// Package statserr defines the error taxonomy shared by the provider,
// paginator, and batch dispatcher layers.
package statserr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for the wire envelope.
type Kind string

const (
	// KindProvider means the upstream dataset fetch failed.
	KindProvider Kind = "ProviderError"
	// KindInvalidArgument means malformed filters or operation arguments.
	KindInvalidArgument Kind = "InvalidArgument"
	// KindUnknownOperation means a batch item named an unregistered operation.
	KindUnknownOperation Kind = "UnknownOperation"
	// KindTimeout means an individual fetch or batch item exceeded its allotted time.
	KindTimeout Kind = "TimeoutError"
)

// Error is a classified error. Wrapped causes stay reachable via errors.Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain. Context deadline expiry maps
// to KindTimeout; everything unclassified is a provider error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindProvider
}
