package employee

type CreateEmployeeRequest struct {
	FullName       string `json:"full_name" binding:"required,max=255"`
	Email          string `json:"email" binding:"required,email"`
	DepartmentID   string `json:"department_id" binding:"omitempty,uuid"`
	HireDate       string `json:"hire_date" binding:"required"`
	Phone          string `json:"phone" binding:"omitempty,max=30"`
	EmployeeNumber string `json:"employee_number" binding:"omitempty,max=20"`
}

type UpdateEmployeeRequest struct {
	FullName string `json:"full_name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	HireDate string `json:"hire_date" binding:"required"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
	IsActive *bool  `json:"is_active"`
}

type MoveDepartmentRequest struct {
	DepartmentID string `json:"department_id" binding:"required,uuid"`
}

type EmployeeResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	DepartmentID   string `json:"department_id,omitempty"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employee_number"`
	Phone          string `json:"phone,omitempty"`
	HireDate       string `json:"hire_date"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// EmployeeOptionResponse is the slim shape for select inputs.
type EmployeeOptionResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}
