package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maildesk-io/maildesk/internal/auth"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ContextTenantID = "tenant_id"
	ContextUserID   = "user_id"
)

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth validates the bearer token and stores the tenant and user
// identity on the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c, "Missing authorization token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
}
