// Package apperror holds the typed failures returned to callers. Each carries a stable
// reason code; wrapped causes are for logs only and never rendered.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeSessionLimitExceeded Code = "SESSION_LIMIT_EXCEEDED"
	CodeSessionOwnerMismatch Code = "SESSION_OWNER_MISMATCH"
	CodeSessionNotFound      Code = "SESSION_NOT_FOUND"
	CodeSessionEnded         Code = "SESSION_ENDED"
	CodeProviderFailure      Code = "PROVIDER_FAILURE"
	CodeStoreUnavailable     Code = "STORE_UNAVAILABLE"
	CodeInvalidRequest       Code = "INVALID_REQUEST"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeInternal             Code = "INTERNAL_ERROR"
)

type Error struct {
	Code      Code
	Message   string
	Status    int
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code so wrapped instances compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// PublicCode is what the caller sees. An owner mismatch is reported as not-found
// so a non-owner cannot probe for session ids.
func (e *Error) PublicCode() Code {
	if e.Code == CodeSessionOwnerMismatch {
		return CodeSessionNotFound
	}
	return e.Code
}

// PublicMessage mirrors PublicCode.
func (e *Error) PublicMessage() string {
	if e.Code == CodeSessionOwnerMismatch {
		return ErrSessionNotFound.Message
	}
	return e.Message
}

var (
	ErrSessionLimitExceeded = &Error{
		Code:    CodeSessionLimitExceeded,
		Message: "owner already has an active session; end it before starting another",
		Status:  http.StatusConflict,
	}
	ErrSessionOwnerMismatch = &Error{
		Code:    CodeSessionOwnerMismatch,
		Message: "session belongs to a different owner",
		Status:  http.StatusNotFound,
	}
	ErrSessionNotFound = &Error{
		Code:    CodeSessionNotFound,
		Message: "session not found",
		Status:  http.StatusNotFound,
	}
	ErrSessionEnded = &Error{
		Code:    CodeSessionEnded,
		Message: "session is not active",
		Status:  http.StatusConflict,
	}
	ErrProviderFailure = &Error{
		Code:      CodeProviderFailure,
		Message:   "completion provider failed; your message was saved, retry to resend the conversation",
		Status:    http.StatusBadGateway,
		Retryable: true,
	}
	ErrStoreUnavailable = &Error{
		Code:      CodeStoreUnavailable,
		Message:   "storage is unavailable, try again",
		Status:    http.StatusServiceUnavailable,
		Retryable: true,
	}
	ErrInvalidRequest = &Error{
		Code:    CodeInvalidRequest,
		Message: "invalid request",
		Status:  http.StatusBadRequest,
	}
	ErrUnauthorized = &Error{
		Code:    CodeUnauthorized,
		Message: "unauthorized",
		Status:  http.StatusUnauthorized,
	}
)

// Wrap returns a copy of base carrying cause.
func Wrap(base *Error, cause error) *Error {
	cp := *base
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of base with a caller-facing message.
func WithMessage(base *Error, message string) *Error {
	cp := *base
	cp.Message = message
	return &cp
}

// Store marks cause as a storage failure. Errors already typed here pass through.
func Store(cause error) *Error {
	if appErr, ok := As(cause); ok {
		return appErr
	}
	return Wrap(ErrStoreUnavailable, cause)
}

func Provider(cause error) *Error {
	return Wrap(ErrProviderFailure, cause)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
