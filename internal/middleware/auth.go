package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

const internalKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware guards the dashboard and admin routes. Callers
// present the shared key from INTERNAL_API_KEY in the X-Internal-API-Key
// header; comparison is constant-time. With no key configured every request
// is rejected as a server misconfiguration rather than letting the routes
// fall open.
func InternalAuthMiddleware() gin.HandlerFunc {
	key := []byte(os.Getenv("INTERNAL_API_KEY"))

	return func(c *gin.Context) {
		if len(key) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: INTERNAL_API_KEY not set",
			})
			return
		}

		presented := []byte(c.GetHeader(internalKeyHeader))
		if subtle.ConstantTimeCompare(presented, key) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}
