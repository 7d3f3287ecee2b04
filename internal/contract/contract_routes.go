package contract

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Manager, rdb *redis.Client) {
	contracts := r.Group("/contracts")
	contracts.Use(middleware.SessionAuth(sessions), middleware.CSRF())
	{
		contracts.POST("", middleware.Idempotency(rdb), h.Create)
		contracts.GET("", h.GetAll)
		contracts.GET("/:id", h.GetByID)
		contracts.PUT("/:id", h.Update)
		contracts.POST("/:id/terminate", h.Terminate)
		contracts.DELETE("/:id", h.Delete)
	}
}
