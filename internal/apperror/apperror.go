package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOrExpired = errors.New("invalid or expired")
	ErrUpstream         = errors.New("upstream failure")
	ErrCanceled         = errors.New("canceled")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Duplicate is a conflict with a caller-supplied message, used where the
// conflicting key should not be echoed back (duplicate email, double save).
func Duplicate(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or invalid credentials.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidOrExpired covers single-use code/token lookups. The message must
// not reveal whether the code was wrong or merely expired.
func InvalidOrExpired(what string) *AppError {
	return &AppError{
		Err:     ErrInvalidOrExpired,
		Message: fmt.Sprintf("invalid or expired %s", what),
	}
}

// Upstream wraps a failure from an external collaborator (news source,
// mailer, summarizer). HTTP handlers map this to 502.
func Upstream(collaborator string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, err),
		Message: fmt.Sprintf("%s request failed", collaborator),
		Field:   collaborator,
	}
}

// Canceled marks work superseded by a newer request. It is a distinguished
// outcome, not a true failure; callers leave state untouched.
func Canceled(what string) *AppError {
	return &AppError{
		Err:     ErrCanceled,
		Message: fmt.Sprintf("%s canceled", what),
	}
}
