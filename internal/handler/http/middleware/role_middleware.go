package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/service"
)

// RequirePermission gates a route on the authenticated user holding the
// permission. The check re-reads role assignments on every request, so an
// expired grant stops working immediately.
func RequirePermission(auth *service.AuthService, permission string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetString(GinContextUserIDKey)
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		allowed, err := auth.HasPermission(c.Request.Context(), userID, permission)
		if err != nil {
			logger.Error("Permission check failed",
				zap.String("user_id", userIDStr),
				zap.String("permission", permission),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}
