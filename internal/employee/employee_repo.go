package employee

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
	"github.com/Laktab-Noureddine-code/NessRH/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	// FindAllByCompany lists the company's employees, optionally
	// narrowed to one department.
	FindAllByCompany(ctx context.Context, companyID, departmentID string) ([]Employee, error)
	FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, companyID, id string) error
	// FindMember is a cross-feature lookup by ID only; tenant match is
	// the caller's graph check to make, not this query's.
	FindMember(ctx context.Context, id string) (organization.Member, error)
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

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID, departmentID string) ([]Employee, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if departmentID != "" {
		q = q.Where("department_id = ?", departmentID)
	}

	var empls []Employee
	err := q.Order("full_name ASC").Find(&empls).Error
	return empls, err
}

func (r *repository) FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID), tenant.ActiveOnly()).
		Select("id", "full_name").
		Order("full_name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Save(empl).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindMember(ctx context.Context, id string) (organization.Member, error) {
	var empl Employee
	err := r.db.WithContext(ctx).First(&empl, "id = ?", id).Error
	if err != nil {
		return organization.Member{}, err
	}
	return empl.Member(), nil
}
