package companyerrors

import (
	"net/http"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

var (
	ErrCompanyNotFound = apperror.New(
		apperror.CodeNotFound,
		"Company not found",
		http.StatusNotFound,
	)
	ErrAlreadyOnboarded = apperror.New(
		apperror.CodeConflict,
		"This account already owns a company",
		http.StatusConflict,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeValidationFailed,
		"Invalid company ID",
		http.StatusUnprocessableEntity,
	)
)
