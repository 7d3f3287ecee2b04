package department

import (
	"github.com/gin-gonic/gin"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Manager) {
	departments := r.Group("/departments")
	departments.Use(middleware.SessionAuth(sessions), middleware.CSRF())
	{
		departments.POST("", h.Create)
		departments.GET("", h.GetAll)
		departments.GET("/:id", h.GetByID)
		departments.PUT("/:id", h.Update)
		departments.PUT("/:id/manager", h.AssignManager)
		departments.DELETE("/:id", h.Delete)
	}
}
