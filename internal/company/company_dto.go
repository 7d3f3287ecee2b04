package company

type OnboardCompanyRequest struct {
	Name string `json:"name" binding:"required,max=150"`
}

type UpdateCompanyRequest struct {
	Name     string `json:"name" binding:"required,max=150"`
	IsActive *bool  `json:"is_active"`
}

type CompanyResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerUserID string `json:"owner_user_id"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}
