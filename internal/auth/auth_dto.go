package auth

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type CompanyView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MeResponse struct {
	User    UserResponse `json:"user"`
	Company *CompanyView `json:"company,omitempty"`
}
