package departmenterrors

import (
	"net/http"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

var (
	ErrDepartmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"Department not found",
		http.StatusNotFound,
	)
	ErrInvalidDepartmentID = apperror.New(
		apperror.CodeValidationFailed,
		"Invalid department ID",
		http.StatusUnprocessableEntity,
	)
)
