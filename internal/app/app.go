package app

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/bootstrap"
	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/connection"
)

// BuildApp connects the infrastructure and mounts every feature under
// /api/v1.
func BuildApp(router *gin.Engine, audit bootstrap.AuditLogger) error {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	logger.Info("redis connection established")

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
	)

	return registerModules(router, sqlDB, gormDB, redisClient, audit)
}
