package contract

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Type string

const (
	TypeCDI       Type = "CDI"
	TypeCDD       Type = "CDD"
	TypeStage     Type = "Stage"
	TypeFreelance Type = "Freelance"
	TypeAnapec    Type = "Anapec"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusTerminated
}

type Contract struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID `gorm:"type:uuid;index"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;index"`
	Type         Type      `gorm:"type:varchar(20);default:CDI"`
	Status       Status    `gorm:"type:varchar(20);default:active"`
	JobTitle     string
	StartDate    time.Time
	EndDate      *time.Time
	GrossSalary  float64
	FilePath     *string `gorm:"type:varchar(500)"`
	TerminatedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Contract) TableName() string {
	return "contracts"
}

// EffectiveStatus derives the status as of now. A stored active
// contract whose end date has passed reads as expired even before the
// sweep has written it back.
func (c *Contract) EffectiveStatus(now time.Time) Status {
	if c.Status == StatusActive && c.EndDate != nil && now.After(*c.EndDate) {
		return StatusExpired
	}
	return c.Status
}
