package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, sessions session.Manager) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", middleware.RateLimitByIP(0.1, 3), handler.Register)
		auth.POST("/login", middleware.RateLimitByIP(0.08, 5), handler.Login)

		authed := auth.Group("")
		authed.Use(middleware.SessionAuth(sessions))
		{
			authed.GET("/csrf", handler.CSRFCookie)
			authed.GET("/me", middleware.RateLimitByUser(2, 5), handler.Me)
			authed.POST("/logout", middleware.CSRF(), handler.Logout)
		}
	}
}
