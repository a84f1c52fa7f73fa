// Package errs defines the recoverable error-kind taxonomy and the
// fatal-assertion helper for unrecoverable programming errors.
package errs

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Kind is one of the recoverable error categories the core reports.
type Kind string

const (
	ConfigInvalid       Kind = "ConfigInvalid"
	DeviceBusy          Kind = "DeviceBusy"
	DeviceNotFound      Kind = "DeviceNotFound"
	NetworkUnavailable  Kind = "NetworkUnavailable"
	ProtocolError       Kind = "ProtocolError"
	BufferOverflow      Kind = "BufferOverflow"
	DecodeFailure       Kind = "DecodeFailure"
	Unsupported         Kind = "Unsupported"
)

// Error wraps an underlying cause with one of the Kind values so callers
// can branch with errors.Is(err, errs.Sentinel(errs.DecodeFailure)) or
// errs.KindOf.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, errs.Sentinel(SomeKind)) work by comparing Kinds
// when target is an *Error; any other target never matches.
func (e *Error) Is(target error) bool {
	var k Kind
	if te, ok := target.(*Error); ok {
		k = te.Kind
	} else {
		return false
	}
	return e.Kind == k
}

// New wraps cause with kind. cause may be nil.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf is a convenience constructor that formats the cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// Sentinel returns a bare *Error usable only with errors.Is, e.g.
// errors.Is(err, errs.Sentinel(errs.DecodeFailure)).
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}

// KindOf extracts the Kind from err, if any, and reports whether one was
// found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Fatal panics with a captured backtrace for unrecoverable programming
// errors (an unsupported resampler rate pair, a violated capacity
// invariant): these should crash with diagnostics rather than be absorbed.
func Fatal(msg string) {
	panic(fmt.Sprintf("%s\n%s", msg, debug.Stack()))
}

// Assert panics via Fatal if cond is false.
func Assert(cond bool, msg string) {
	if !cond {
		Fatal(msg)
	}
}
