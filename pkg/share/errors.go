package share

import "fmt"

// Error represents a domain error from share operations.
//
// These are business logic errors (unknown share, permission denied, ...) as
// opposed to infrastructure errors. The API layer translates Code to its own
// wire representation.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable description
	Message string

	// Err is the underlying cause, if any (store failures wrap the
	// persistence layer's error verbatim)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a share error.
type ErrorCode int

const (
	// ErrInvalidArgument indicates a malformed identifier, a malformed
	// operation list, or an empty content set at creation
	ErrInvalidArgument ErrorCode = iota

	// ErrNotFound indicates the share identifier is not indexed
	ErrNotFound

	// ErrPermissionDenied indicates the actor holds no role that permits the
	// call. Operation-level permission failures inside UpdateDoc are silent
	// no-ops, not this error.
	ErrPermissionDenied

	// ErrBusy indicates a mutation is already in flight for the share.
	// Never retried automatically; the caller may retry.
	ErrBusy

	// ErrStoreFailure indicates the persistence layer could not durably
	// write or archive
	ErrStoreFailure
)

// CodeOf extracts the ErrorCode from err, or ok=false if err is not a share
// domain error.
func CodeOf(err error) (ErrorCode, bool) {
	if e, ok := err.(*Error); ok {
		return e.Code, true
	}
	return 0, false
}

func invalidArgumentf(format string, args ...any) *Error {
	return &Error{Code: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *Error {
	return &Error{Code: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func permissionDeniedf(format string, args ...any) *Error {
	return &Error{Code: ErrPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func busyf(format string, args ...any) *Error {
	return &Error{Code: ErrBusy, Message: fmt.Sprintf(format, args...)}
}

// StoreFailure wraps a persistence layer error into the domain taxonomy
// without hiding the original error.
func StoreFailure(op string, err error) *Error {
	return &Error{Code: ErrStoreFailure, Message: "share store " + op + " failed", Err: err}
}
