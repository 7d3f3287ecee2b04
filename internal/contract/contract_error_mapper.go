package contract

import (
	"errors"

	"gorm.io/gorm"

	contracterrors "github.com/Laktab-Noureddine-code/NessRH/internal/contract/errors"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return contracterrors.ErrContractNotFound
	}

	return err
}
