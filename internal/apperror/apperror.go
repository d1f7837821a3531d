package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
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

// NotFoundWithMessage is NotFound with a caller-chosen message.
// Used when the message must not reveal whether the resource exists at all,
// e.g. a course that is missing and a course owned by someone else look the same.
func NotFoundWithMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError indicating no authenticated principal.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InternalMessage replaces unexpected error text in client responses.
const InternalMessage = "An internal error occurred"

// PublicMessage returns the text a client may see for err.
// An AppError anywhere in the chain is shown as is. Anything else is an
// unexpected failure whose text is only shown when exposeDetails is set.
func PublicMessage(err error, exposeDetails bool) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if exposeDetails {
		return err.Error()
	}
	return InternalMessage
}
