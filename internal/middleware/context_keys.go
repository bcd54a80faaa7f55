package middleware

import "github.com/gin-gonic/gin"

// userIDKey and userRoleKey store the authenticated caller's identity in the
// request context.
const (
	userIDKey   = contextKey("userID")
	userRoleKey = contextKey("userRole")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin
// context. It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	val := c.Request.Context().Value(userIDKey)
	if val == nil {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok
}

// GetUserRoleFromContext retrieves the authenticated user's role from the
// Gin context.
func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	val := c.Request.Context().Value(userRoleKey)
	if val == nil {
		return "", false
	}
	role, ok := val.(string)
	return role, ok
}
