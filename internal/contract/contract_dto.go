package contract

type CreateContractRequest struct {
	EmployeeID  string  `json:"employee_id" binding:"required,uuid"`
	Type        string  `json:"type" binding:"omitempty,oneof=CDI CDD Stage Freelance Anapec"`
	JobTitle    string  `json:"job_title" binding:"omitempty,max=255"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     string  `json:"end_date" binding:"omitempty"`
	GrossSalary float64 `json:"gross_salary" binding:"required,gt=0"`
	FilePath    string  `json:"file_path" binding:"omitempty,max=500"`
}

type UpdateContractRequest struct {
	Type        string  `json:"type" binding:"omitempty,oneof=CDI CDD Stage Freelance Anapec"`
	JobTitle    string  `json:"job_title" binding:"omitempty,max=255"`
	EndDate     string  `json:"end_date" binding:"omitempty"`
	GrossSalary float64 `json:"gross_salary" binding:"required,gt=0"`
	FilePath    string  `json:"file_path" binding:"omitempty,max=500"`
}

type ContractResponse struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	EmployeeID   string  `json:"employee_id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	JobTitle     string  `json:"job_title,omitempty"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date,omitempty"`
	GrossSalary  float64 `json:"gross_salary"`
	FilePath     string  `json:"file_path,omitempty"`
	TerminatedAt string  `json:"terminated_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}
