package employee

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	employeeerrors "github.com/Laktab-Noureddine-code/NessRH/internal/employee/errors"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

func emailTakenError() error {
	return apperror.FieldError("email", "Email is already used by another employee in this company")
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_employees_company_email" {
			return emailTakenError()
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key value") && strings.Contains(msg, "uq_employees_company_email") {
		return emailTakenError()
	}

	return err
}
