package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
)

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:uq_employees_company_email"`
	DepartmentID   *uuid.UUID `gorm:"type:uuid"`
	UserID         *uuid.UUID `gorm:"type:uuid"`
	FullName       string
	Email          string `gorm:"uniqueIndex:uq_employees_company_email"`
	EmployeeNumber string
	Phone          string
	HireDate       time.Time
	IsActive       bool `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}

// Member is the organization-graph view of this row.
func (e *Employee) Member() organization.Member {
	return organization.Member{
		ID:        e.ID,
		CompanyID: e.CompanyID,
		FullName:  e.FullName,
	}
}
