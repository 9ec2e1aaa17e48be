package dispatch

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the typed per-operation outcome of the dispatcher. It wraps a
// return code (of type RetCode) and the underlying cause, if any.
type Error struct {
	Code  RetCode // The return code
	Msg   string  // The error message
	cause error   // The underlying error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("DispatchError (%s): %s: %v", e.Code, e.Msg, e.cause)
	}
	return fmt.Sprintf("DispatchError (%s): %s", e.Code, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new Error with the given code, message and cause.
func NewError(code RetCode, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, cause: cause}
}

// CodeOf extracts the RetCode from an error returned by the dispatcher.
// It returns RetCUnknown if the error is not a dispatch error.
func CodeOf(err error) RetCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCUnknown
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode classifies the failure of a dispatched operation.
type RetCode uint8

const (
	RetCUnknown RetCode = iota
	// RetCNotFound: a Get for a key with no value. Never retried.
	RetCNotFound
	// RetCTimeoutExceeded: the per-attempt timeout elapsed on every attempt
	RetCTimeoutExceeded
	// RetCOwnershipConflict: the storage tier kept rejecting the request as
	// "not owner" even after re-resolving the routing information
	RetCOwnershipConflict
	// RetCConnectionLost: the connection failed mid-flight on every attempt
	RetCConnectionLost
	// RetCUnreachable: no storage endpoint could be connected
	RetCUnreachable
	// RetCProtocol: malformed wire data. Never retried since retrying
	// would not help.
	RetCProtocol
	// RetCServer: the server reported an internal failure
	RetCServer
)

// String returns the string representation of a RetCode.
func (c RetCode) String() string {
	switch c {
	case RetCNotFound:
		return "NotFound"
	case RetCTimeoutExceeded:
		return "TimeoutExceeded"
	case RetCOwnershipConflict:
		return "OwnershipConflict"
	case RetCConnectionLost:
		return "ConnectionLost"
	case RetCUnreachable:
		return "Unreachable"
	case RetCProtocol:
		return "Protocol"
	case RetCServer:
		return "Server"
	default:
		return "Unknown"
	}
}
