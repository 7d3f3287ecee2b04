package contracterrors

import (
	"net/http"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

var (
	ErrContractNotFound = apperror.New(
		apperror.CodeNotFound,
		"Contract not found",
		http.StatusNotFound,
	)
	// ErrContractTerminal rejects writes to expired or terminated
	// contracts; both are final states.
	ErrContractTerminal = apperror.New(
		apperror.CodeInvalidState,
		"Contract is no longer active",
		http.StatusConflict,
	)
)
