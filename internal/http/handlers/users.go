package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListUsers returns all registered users for the board UI (assignment
// dropdowns and avatar rendering). Password hashes never leave the server.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch users"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{"id": u.ID, "username": u.Username})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
