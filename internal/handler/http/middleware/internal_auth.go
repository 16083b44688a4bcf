package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InternalTokenHeader carries the shared secret on service-to-service calls.
const InternalTokenHeader = "X-Internal-Token"

// InternalAuth gates the service-to-service routes behind a shared static
// token. An empty configured token disables the internal surface entirely
// rather than leaving it open.
func InternalAuth(token string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			logger.Warn("Internal API called but no internal token configured")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "internal API disabled"})
			return
		}
		presented := c.GetHeader(InternalTokenHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid internal token"})
			return
		}
		c.Next()
	}
}
