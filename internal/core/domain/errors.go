package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrEmptyFile        = errors.New("empty file")
	ErrNoTextFound      = errors.New("no text found")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrMalformedOutput  = errors.New("malformed output")
	ErrNoOutput         = errors.New("no output")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// FieldError names the first form field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e == nil {
		return "invalid field"
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError wraps a field violation as ErrInvalidInput.
func NewValidationError(operation, field, reason string) error {
	return WrapError(ErrInvalidInput, operation, &FieldError{Field: field, Reason: reason})
}

// UserMessage renders the single human-readable message shown for a failed operation.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var fieldErr *FieldError
	switch {
	case errors.As(err, &fieldErr):
		return fmt.Sprintf("Invalid input: %s %s.", fieldErr.Field, fieldErr.Reason)
	case IsKind(err, ErrInvalidInput):
		return "Invalid input."
	case IsKind(err, ErrEmptyFile):
		return "No file provided."
	case IsKind(err, ErrNoTextFound):
		return "No extractable text was found in the document."
	case IsKind(err, ErrExtractionFailed):
		return "Could not extract text from the document."
	case IsKind(err, ErrNoOutput):
		return "The model returned no output."
	case IsKind(err, ErrMalformedOutput):
		return "The model returned a response in an unexpected format. Please try again."
	case IsKind(err, ErrTemporary):
		return "The generation service is temporarily unavailable. Please try again."
	case IsKind(err, ErrUnauthorized):
		return "Unauthorized."
	default:
		return "An unknown error occurred."
	}
}
