package apperror

import "fmt"

// FieldErrors maps a request field name to every message that failed for it.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

type AppError struct {
	Code       string      // Error code (e.g., VALIDATION_FAILED)
	Message    string      // User-friendly message
	HTTPStatus int         // HTTP status code
	Fields     FieldErrors // Per-field messages, set on validation failures
	Err        error       // Wrapped original error (optional)
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap interface for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError without wrapping
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap creates an AppError that wraps an existing error
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Validation builds a 422 error carrying the full per-field error map.
func Validation(fields FieldErrors) *AppError {
	return &AppError{
		Code:       CodeValidationFailed,
		Message:    "The given data was invalid",
		HTTPStatus: 422,
		Fields:     fields,
	}
}

// FieldError is shorthand for a validation failure on a single field,
// used when an invariant check (uniqueness, cross-tenant reference)
// maps to one offending field.
func FieldError(field, message string) *AppError {
	return Validation(FieldErrors{field: {message}})
}
