package company

import (
	"github.com/gin-gonic/gin"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Manager) {
	companies := r.Group("/companies")
	companies.Use(middleware.SessionAuth(sessions), middleware.CSRF())
	{
		companies.POST("", h.Onboard)
		companies.GET("/current", h.GetCurrent)
		companies.PUT("/current", h.Update)
		companies.DELETE("/current", h.DeleteCurrent)
	}
}
