// Package apperror defines the typed errors returned by the service and
// repository layers. Handlers translate them into HTTP responses; nothing
// below the handler layer knows about status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Word bank and quiz preconditions. None of these mutate state.
	ErrDuplicateWord = errors.New("duplicate word")
	ErrEmptyBank     = errors.New("empty word bank")
	ErrNoCandidates  = errors.New("no quiz candidates")

	// ErrTranslationUnavailable marks a transient upstream failure. Callers
	// may retry; no cache row was written.
	ErrTranslationUnavailable = errors.New("translation unavailable")
)

type AppError struct {
	Err     error  // category sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: lower-level error that triggered this one
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the category sentinel and the cause, so
// errors.Is(err, ErrTranslationUnavailable) and
// errors.Is(err, context.DeadlineExceeded) can both match.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
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

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned for bad credentials. The message is deliberately
// the same for "no such user" and "wrong password".
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func DuplicateWord(lemma string) *AppError {
	return &AppError{
		Err:     ErrDuplicateWord,
		Message: fmt.Sprintf("word %q is already in your word bank", lemma),
		Field:   "word",
	}
}

func EmptyBank() *AppError {
	return &AppError{
		Err:     ErrEmptyBank,
		Message: "word bank is already empty",
	}
}

func NoCandidates() *AppError {
	return &AppError{
		Err:     ErrNoCandidates,
		Message: "no words with a cached translation are available for a quiz",
	}
}

func TranslationUnavailable(cause error) *AppError {
	return &AppError{
		Err:     ErrTranslationUnavailable,
		Message: "translation service is unavailable, try again later",
		Cause:   cause,
	}
}
