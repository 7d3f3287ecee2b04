package organization

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

// The organization graph is Company -> Departments -> Employees, with a
// single manager link from a department to one of the company's
// employees. Because that link points Department->Employee and never
// Employee->Employee, no management cycle can form by construction; if
// direct employee-to-employee chains are ever added, a visited-set walk
// becomes mandatory here.

var ErrCrossTenantReference = apperror.New(
	"CROSS_TENANT_REFERENCE",
	"Referenced record belongs to another company",
	http.StatusUnprocessableEntity,
)

// Member is the graph view of an employee.
type Member struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	FullName  string
}

// Unit is the graph view of a department.
type Unit struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	ManagerID *uuid.UUID
}

// CheckManagerAssignment validates that a candidate manager may be set
// on a department. The only invariant is tenant match: the candidate
// must be an employee of the department's company.
func CheckManagerAssignment(dept Unit, candidate Member) error {
	if candidate.CompanyID != dept.CompanyID {
		return ErrCrossTenantReference
	}
	return nil
}

// CheckEmployeeMove validates moving an employee into a department.
func CheckEmployeeMove(emp Member, dept Unit) error {
	if emp.CompanyID != dept.CompanyID {
		return ErrCrossTenantReference
	}
	return nil
}
