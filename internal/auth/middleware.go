package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	permissionsKey = "permissions"
	operatorKey    = "operator"
)

// AuthMiddleware validates bearer tokens. A nil handler means auth is
// disabled and every caller gets operator permissions.
func (j *JWTHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if j == nil {
			c.Set(permissionsKey, []Permission{PermViewer, PermOperator})
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := j.ValidateAccessToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(permissionsKey, claims.Permissions())
		c.Set(operatorKey, claims.Name)
		c.Next()
	}
}

// RequirePermission checks if caller has required permission
func RequirePermission(required Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, exists := c.Get(permissionsKey)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "no permissions found",
			})
			c.Abort()
			return
		}

		if !HasPermission(perms.([]Permission), required) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "insufficient permissions",
				"required": string(required),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func HasPermission(permissions []Permission, required Permission) bool {
	for _, p := range permissions {
		if p == required {
			return true
		}
	}
	return false
}
