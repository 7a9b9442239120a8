package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/repository"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.Tasks.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Priority    domain.Priority `json:"priority"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	task, err := h.Tasks.Create(c.Request.Context(), userID, req.Title, req.Description, req.Priority)
	if err != nil {
		status, body := createErrorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req struct {
		Version     *int64           `json:"version"`
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Status      *domain.Status   `json:"status"`
		Priority    *domain.Priority `json:"priority"`
		AssignedTo  *int64           `json:"assigned_to"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Version == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	}

	task, conflict, err := h.Tasks.Update(c.Request.Context(), userID, id, *req.Version, patch)
	if err != nil {
		h.renderTaskError(c, err)
		return
	}
	if conflict != nil {
		renderConflict(c, conflict)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.Tasks.Delete(c.Request.Context(), userID, id); err != nil {
		h.renderTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

func (h *Handler) SmartAssign(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	task, conflict, err := h.Tasks.SmartAssign(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrNoUsers) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no users to assign"})
			return
		}
		h.renderTaskError(c, err)
		return
	}
	if conflict != nil {
		renderConflict(c, conflict)
		return
	}

	c.JSON(http.StatusOK, task)
}

func renderConflict(c *gin.Context, conflict *service.Conflict) {
	c.JSON(http.StatusConflict, gin.H{
		"reason":        "version_conflict",
		"message":       "this task has been updated by someone else",
		"clientAttempt": conflict.ClientAttempt,
		"serverTask":    conflict.ServerTask,
	})
}

func (h *Handler) renderTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrReservedTitle),
		errors.Is(err, repository.ErrDuplicateTitle),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPriority):
		status, body := createErrorResponse(err)
		c.JSON(status, body)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	}
}

// createErrorResponse maps validation failures to machine-readable reasons,
// keeping reserved-name and duplicate rejections distinguishable.
func createErrorResponse(err error) (int, gin.H) {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle):
		return http.StatusBadRequest, gin.H{"error": "task title is required", "reason": "empty_title"}
	case errors.Is(err, domain.ErrReservedTitle):
		return http.StatusBadRequest, gin.H{"error": "task title cannot be a column name", "reason": "reserved_title"}
	case errors.Is(err, repository.ErrDuplicateTitle):
		return http.StatusBadRequest, gin.H{"error": "a task with this title already exists", "reason": "duplicate_title"}
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, gin.H{"error": "invalid status", "reason": "invalid_status"}
	case errors.Is(err, service.ErrInvalidPriority):
		return http.StatusBadRequest, gin.H{"error": "invalid priority", "reason": "invalid_priority"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "storage failure"}
	}
}
