package department

type CreateDepartmentRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	Code      string `json:"code" binding:"required,max=20"`
	ManagerID string `json:"manager_id" binding:"omitempty,uuid"`
	IsActive  *bool  `json:"is_active"`
}

type UpdateDepartmentRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Code     string `json:"code" binding:"required,max=20"`
	IsActive *bool  `json:"is_active"`
}

type AssignManagerRequest struct {
	ManagerID string `json:"manager_id" binding:"required,uuid"`
}

type DepartmentResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	ManagerID string `json:"manager_id,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
