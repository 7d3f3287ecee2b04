package employee

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Manager, rdb *redis.Client) {
	employees := r.Group("/employees")
	employees.Use(middleware.SessionAuth(sessions), middleware.CSRF())
	{
		employees.POST("", middleware.Idempotency(rdb), h.Create)
		employees.GET("", h.GetAll)
		employees.GET("/options", h.GetOptions)
		employees.GET("/:id", h.GetByID)
		employees.PUT("/:id", h.Update)
		employees.PUT("/:id/department", h.MoveDepartment)
		employees.DELETE("/:id", h.Delete)
	}
}
