package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the auth domain. Repositories return the NotFound
// family for missing rows; services translate and wrap. Persistence failures
// are wrapped with %w and are never collapsed into a NotFound sentinel, so a
// broken store can never be mistaken for an absent record.
var (
	ErrInternal      = errors.New("internal error")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")

	ErrUserNotFound   = errors.New("user not found")
	ErrAccountLocked  = errors.New("account locked")
	ErrEmailExists    = errors.New("email already in use")
	ErrUsernameExists = errors.New("username already in use")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionRevoked  = errors.New("session revoked")

	ErrTokenNotFound = errors.New("verification token not found")
	ErrTokenInvalid  = errors.New("verification token invalid or already used")

	ErrRoleNotFound     = errors.New("role not found")
	ErrRoleInactive     = errors.New("role inactive")
	ErrPermissionDenied = errors.New("permission denied")

	Err2FAAlreadyEnabled = errors.New("two-factor authentication already enabled")
	Err2FANotEnabled     = errors.New("two-factor authentication not enabled")

	ErrAuditWriteFailed = errors.New("security log write failed")
)

// AppError attaches an API error code and HTTP status to a domain error for
// the transport layer.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{Err: err, Message: message, StatusCode: statusCode, Code: code}
}

// IsNotFound reports whether err represents an absent resource. Absence is an
// expected outcome for lookups, not an exceptional one.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrRoleNotFound)
}

// IsUnauthorized reports whether err should surface as HTTP 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionRevoked)
}

// IsForbidden reports whether err should surface as HTTP 403.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrPermissionDenied)
}

// IsConflict reports whether err represents a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrUsernameExists)
}
