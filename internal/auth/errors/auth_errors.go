package autherrors

import (
	"net/http"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		"INVALID_CREDENTIALS",
		"Invalid credentials",
		http.StatusUnauthorized,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeValidationFailed,
		"Invalid user ID",
		http.StatusUnprocessableEntity,
	)
)
