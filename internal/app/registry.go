package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Laktab-Noureddine-code/NessRH/internal/auth"
	"github.com/Laktab-Noureddine-code/NessRH/internal/bootstrap"
	"github.com/Laktab-Noureddine-code/NessRH/internal/company"
	"github.com/Laktab-Noureddine-code/NessRH/internal/contract"
	"github.com/Laktab-Noureddine-code/NessRH/internal/department"
	"github.com/Laktab-Noureddine-code/NessRH/internal/employee"
	"github.com/Laktab-Noureddine-code/NessRH/internal/messaging/kafka"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/counter"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	audit bootstrap.AuditLogger,
) error {
	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	companyRepo := company.NewRepository(gormDB)
	departmentRepo := department.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	contractRepo := contract.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Sessions ---
	sessions := session.NewManager(rdb)

	// --- Services ---
	// Cross-feature lookups go through the repos: departments resolve
	// managers via the employee repo, employees and contracts resolve
	// the other side the same way.
	companyService := company.NewService(companyRepo)
	authService := auth.NewService(authRepo, companyService)
	departmentService := department.NewService(db, departmentRepo, employeeRepo, rdb)
	employeeService := employee.NewServiceWithOutbox(db, employeeRepo, departmentRepo, counterRepo, outboxRepo, rdb)
	contractService := contract.NewService(db, contractRepo, employeeRepo, outboxRepo)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, sessions, audit)
	companyHandler := company.NewHandler(companyService, sessions, audit)
	departmentHandler := department.NewHandler(departmentService)
	employeeHandler := employee.NewHandlerWithRedis(employeeService, rdb)
	contractHandler := contract.NewHandlerWithRedis(contractService, audit, rdb)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, sessions)
		company.RegisterRoutes(api, companyHandler, sessions)
		department.RegisterRoutes(api, departmentHandler, sessions)
		employee.RegisterRoutes(api, employeeHandler, sessions, rdb)
		contract.RegisterRoutes(api, contractHandler, sessions, rdb)
	}

	return nil
}
