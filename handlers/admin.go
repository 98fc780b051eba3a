package handlers

import (
	"net/http"

	"velora-server/models"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware checks if the user is an admin. The role claim is
// re-checked against the database so a revoked admin can't keep using
// an old token.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
			c.Abort()
			return
		}

		var role string
		var isActive bool
		query := `SELECT role, is_active FROM users WHERE id = $1`
		err := DB.QueryRow(query, userID).Scan(&role, &isActive)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check user role"})
			c.Abort()
			return
		}

		if role != models.RoleAdmin || !isActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
