package http

import (
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/config"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/http/handlers"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/http/middleware"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/repository"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/service"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, hub *ws.Hub, cfg *config.Config, version string) {
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	logRepo := repository.NewActionLogRepository(db)

	svc := service.NewTaskService(taskRepo, userRepo, logRepo, hub)
	h := handlers.NewHandler(db, svc)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	// Auth (tighter limit than the rest of the API)
	authRL := middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)
	v1.POST("/auth/register", authRL, h.Register)
	v1.POST("/auth/login", authRL, h.Login)

	// Board
	v1.GET("/tasks", middleware.JWT(), h.ListTasks)
	v1.POST("/tasks", middleware.JWT(), h.CreateTask)
	v1.PUT("/tasks/:id", middleware.JWT(), h.UpdateTask)
	v1.DELETE("/tasks/:id", middleware.JWT(), h.DeleteTask)
	v1.POST("/tasks/:id/smart-assign", middleware.JWT(), h.SmartAssign)

	v1.GET("/logs", middleware.JWT(), h.GetLogs)
	v1.GET("/users", middleware.JWT(), h.ListUsers)

	// WebSocket event stream for board observers
	r.GET("/ws", ws.HandleWS(hub))
}
