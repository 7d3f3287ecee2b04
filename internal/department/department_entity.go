package department

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/organization"
)

// Department code is unique per company, not globally: the composite
// unique index is the authoritative guard against concurrent creates
// with the same code.
type Department struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_departments_company_code"`
	Name      string     `gorm:"size:255;not null"`
	Code      string     `gorm:"size:20;not null;uniqueIndex:uq_departments_company_code"`
	ManagerID *uuid.UUID `gorm:"type:uuid"`
	IsActive  bool       `gorm:"not null;default:true"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Unit is this department's node in the organization graph.
func (d *Department) Unit() organization.Unit {
	return organization.Unit{
		ID:        d.ID,
		CompanyID: d.CompanyID,
		ManagerID: d.ManagerID,
	}
}
