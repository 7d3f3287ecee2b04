package tenant

import "gorm.io/gorm"

// Scope restricts a query to one company. Every repository query over a
// tenant-owned table goes through it, so cross-tenant rows are invisible
// even before authorization runs.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}

// ActiveOnly narrows a query to rows whose is_active flag is set.
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true)
	}
}
