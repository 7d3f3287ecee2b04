package contract

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, contract *Contract) error
	// FindAllByCompany lists the company's contracts, optionally
	// narrowed to one employee.
	FindAllByCompany(ctx context.Context, companyID, employeeID string) ([]Contract, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Contract, error)
	Update(ctx context.Context, contract *Contract) error
	Delete(ctx context.Context, companyID, id string) error
	// MarkExpired flips stored-active contracts whose end date has
	// passed. Reads already derive the expired status; the sweep keeps
	// the stored column from drifting forever.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, contract *Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID, employeeID string) ([]Contract, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	}

	var contracts []Contract
	err := q.Order("start_date DESC").Find(&contracts).Error
	return contracts, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Contract, error) {
	var contract Contract
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *repository) Update(ctx context.Context, contract *Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Contract{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Contract{}).
		Where("status = ?", StatusActive).
		Where("end_date IS NOT NULL AND end_date < ?", now).
		Update("status", StatusExpired)
	return res.RowsAffected, res.Error
}
