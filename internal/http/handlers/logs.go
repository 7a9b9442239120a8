package handlers

import (
	"net/http"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetLogs returns the most recent activity entries, newest first.
func (h *Handler) GetLogs(c *gin.Context) {
	logs, err := h.Tasks.RecentLogs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}
	if logs == nil {
		logs = []*domain.ActionLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
