package middleware

import (
	"net/http"
	"strings"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT validates the Authorization bearer token and puts user_id into the
// request context for downstream handlers.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
