package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

func fieldMessage(e validator.FieldError) string {
	name := formatFieldName(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, e.Param())
	case "max":
		return fmt.Sprintf("%s may not be longer than %s characters", name, e.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid identifier", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

// MapValidationError turns a gin binding error into a 422 AppError
// carrying every failing field at once, never just the first.
func MapValidationError(err error) *AppError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		fields := FieldErrors{}
		for _, e := range errs {
			fields.Add(e.Field(), fieldMessage(e))
		}
		return Validation(fields)
	}

	// Malformed JSON and type mismatches have no field to blame.
	return &AppError{
		Code:       CodeValidationFailed,
		Message:    "The request body is malformed",
		HTTPStatus: 422,
		Err:        err,
	}
}
