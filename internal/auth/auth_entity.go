package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
)

// User is an account identity. CompanyID stays nil until the admin
// onboards a company; EmployeeID links the account to an employee
// record for manager/employee roles. Accounts are soft-deleted, never
// removed.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  *uuid.UUID `gorm:"type:uuid;index"`
	EmployeeID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Name       string     `gorm:"type:varchar(255);not null"`
	Email      string     `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"`
	Password   string     `gorm:"type:varchar(255);not null"`
	Role       string     `gorm:"type:varchar(50);not null;default:'employee'"`
	IsActive   bool       `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// Principal is the authorization view of this account.
func (u *User) Principal() authz.Principal {
	p := authz.Principal{
		UserID: u.ID.String(),
		Name:   u.Name,
		Email:  u.Email,
	}
	if role, ok := authz.ParseRole(u.Role); ok {
		p.Role = role
	} else {
		p.Role = authz.RoleEmployee
	}
	if u.CompanyID != nil {
		p.CompanyID = u.CompanyID.String()
	}
	if u.EmployeeID != nil {
		p.EmployeeID = u.EmployeeID.String()
	}
	return p
}
