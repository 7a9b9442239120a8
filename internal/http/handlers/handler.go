package handlers

import (
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/repository"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB    *pgxpool.Pool
	Tasks *service.TaskService
	Users *repository.UserRepository
}

func NewHandler(db *pgxpool.Pool, tasks *service.TaskService) *Handler {
	return &Handler{
		DB:    db,
		Tasks: tasks,
		Users: repository.NewUserRepository(db),
	}
}

// getUserID extracts the authenticated user id set by the JWT middleware.
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
