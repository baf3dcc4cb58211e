package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSchedulerSecret guards endpoints meant for the external scheduler.
// The secret rides in a header so cron jobs do not need JWT plumbing. An
// empty configured secret disables the endpoint entirely.
func RequireSchedulerSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Scheduler endpoint is not configured",
			})
			return
		}

		provided := c.GetHeader("X-Scheduler-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			unauthorized(c, "Invalid scheduler secret")
			return
		}
		c.Next()
	}
}
