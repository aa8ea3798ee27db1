package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures surfaced to the transport layer.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindConstraintViolation
	KindAuthenticationFailure
	KindPermissionDenied
	KindValidation
	KindStorageFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindAuthenticationFailure:
		return "authentication_failed"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation_error"
	case KindStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// AppError carries a kind, a client-facing message and, for validation
// failures, the offending field names.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg += " (" + strings.Join(e.Fields, ", ") + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches on kind, so errors.Is(err, ErrNotFound) holds for every not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound              = &AppError{Kind: KindNotFound, Message: "not found"}
	ErrConstraintViolation   = &AppError{Kind: KindConstraintViolation, Message: "constraint violation"}
	ErrAuthenticationFailure = &AppError{Kind: KindAuthenticationFailure, Message: "authentication failed"}
	ErrPermissionDenied      = &AppError{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrValidation            = &AppError{Kind: KindValidation, Message: "invalid input"}
	ErrStorageFailure        = &AppError{Kind: KindStorageFailure, Message: "storage failure"}
)

func NotFound(format string, args ...any) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ConstraintViolation(format string, args ...any) error {
	return &AppError{Kind: KindConstraintViolation, Message: fmt.Sprintf(format, args...)}
}

func AuthenticationFailure(msg string, cause error) error {
	return &AppError{Kind: KindAuthenticationFailure, Message: msg, Err: cause}
}

func PermissionDenied(msg string) error {
	return &AppError{Kind: KindPermissionDenied, Message: msg}
}

// ValidationError reports malformed or missing input for the named fields.
func ValidationError(msg string, fields ...string) error {
	return &AppError{Kind: KindValidation, Message: msg, Fields: fields}
}

// StorageFailure wraps an unexpected driver error. It is never retried here.
func StorageFailure(op string, cause error) error {
	return &AppError{Kind: KindStorageFailure, Message: op + " failed", Err: cause}
}

// KindOf returns the kind of err, or zero when err is not an *AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}
