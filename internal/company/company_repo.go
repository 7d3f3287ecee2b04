package company

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// CreateWithOwner inserts the company and binds it to the owning
	// user account in the same transaction, so a failed bind never
	// leaves an orphan company behind.
	CreateWithOwner(ctx context.Context, comp *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Update(ctx context.Context, comp *Company) error
	// SoftDeleteCascade removes the company and everything it owns in
	// one transaction: contracts, employees, departments, the company
	// row, and the company binding on user accounts. All deletes are
	// soft; user accounts survive with their company detached.
	SoftDeleteCascade(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithOwner(ctx context.Context, comp *Company) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comp).Error; err != nil {
			return err
		}
		res := tx.Exec(`
			UPDATE users SET company_id = ?
			WHERE id = ? AND company_id IS NULL`, comp.ID, comp.OwnerUserID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var comp Company
	err := r.db.WithContext(ctx).First(&comp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &comp, nil
}

func (r *repository) Update(ctx context.Context, comp *Company) error {
	return r.db.WithContext(ctx).Save(comp).Error
}

func (r *repository) SoftDeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			UPDATE contracts SET deleted_at = NOW()
			WHERE deleted_at IS NULL AND company_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			UPDATE employees SET deleted_at = NOW()
			WHERE deleted_at IS NULL AND company_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			UPDATE departments SET deleted_at = NOW()
			WHERE deleted_at IS NULL AND company_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			UPDATE users SET company_id = NULL, employee_id = NULL
			WHERE company_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`
			UPDATE companies SET deleted_at = NOW()
			WHERE deleted_at IS NULL AND id = ?`, id).Error
	})
}
