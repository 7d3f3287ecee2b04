package department

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	departmenterrors "github.com/Laktab-Noureddine-code/NessRH/internal/department/errors"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

func codeTakenError() error {
	return apperror.FieldError("code", "Code is already used by another department in this company")
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return departmenterrors.ErrDepartmentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_departments_company_code" {
			return codeTakenError()
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key value") && strings.Contains(msg, "uq_departments_company_code") {
		return codeTakenError()
	}

	return err
}
