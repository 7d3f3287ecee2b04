package authz

import (
	"net/http"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

func denyMessage(reason DenyReason) string {
	switch reason {
	case ReasonWrongTenant:
		return "Resource belongs to another company"
	case ReasonInsufficientRole:
		return "Your role does not permit this action"
	case ReasonNotOwner:
		return "You can only act on resources you own or manage"
	}
	return "Access denied"
}

// Err converts a denial into a 403 AppError whose code is the deny
// reason, or nil when the decision allows.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperror.New(string(d.Reason), denyMessage(d.Reason), http.StatusForbidden)
}
