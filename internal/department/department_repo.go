package department

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, dept *Department) error
	FindAllByCompany(ctx context.Context, companyID string, activeOnly bool) ([]Department, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Department, error)
	// CodeExists reports whether another department in the company
	// already uses the code, excluding excludeID when non-empty. The
	// unique index remains the authoritative guard; this pre-check
	// exists to report the failure as a field error.
	CodeExists(ctx context.Context, companyID, code, excludeID string) (bool, error)
	Update(ctx context.Context, dept *Department) error
	Delete(ctx context.Context, companyID, id string) error
	// FindUnit is a cross-feature lookup by ID only; tenant match is
	// the caller's graph check to make, not this query's.
	FindUnit(ctx context.Context, id string) (organization.Unit, error)
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

func (r *repository) Create(ctx context.Context, dept *Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, activeOnly bool) ([]Department, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if activeOnly {
		q = q.Scopes(tenant.ActiveOnly())
	}

	var depts []Department
	err := q.Order("code ASC").Find(&depts).Error
	return depts, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Department, error) {
	var dept Department
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&dept, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *repository) CodeExists(ctx context.Context, companyID, code, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&Department{}).
		Scopes(tenant.Scope(companyID)).
		Where("code = ?", code)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, dept *Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *repository) FindUnit(ctx context.Context, id string) (organization.Unit, error) {
	var dept Department
	err := r.db.WithContext(ctx).First(&dept, "id = ?", id).Error
	if err != nil {
		return organization.Unit{}, err
	}
	return dept.Unit(), nil
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Department{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
