package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/service"
)

const (
	AuthHeaderKey  = "Authorization"
	AuthTypeBearer = "bearer"

	GinContextUserKey      = "authUser"
	GinContextUserIDKey    = "userID"
	GinContextSessionKey   = "authSession"
	GinContextSessionIDKey = "sessionID"
)

// AuthMiddleware authenticates requests by their opaque bearer session token.
// Validity is re-checked against the store on every request; locked accounts
// are refused (and the attempt is logged by the service at maximum risk).
func AuthMiddleware(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != AuthTypeBearer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header format must be Bearer <token>"})
			return
		}

		ip := c.ClientIP()
		ua := c.Request.UserAgent()
		user, session, err := auth.Authenticate(c.Request.Context(), parts[1], &ip, &ua)
		if err != nil {
			switch {
			case domainErrors.IsNotFound(err) || domainErrors.IsUnauthorized(err):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			case domainErrors.IsForbidden(err):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account locked"})
			default:
				// Store failure: never degrade into "unauthorized", that
				// would hide a broken audit trail behind a 401.
				logger.Error("Authentication failed on store error", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.Set(GinContextUserKey, user)
		c.Set(GinContextUserIDKey, user.ID.String())
		c.Set(GinContextSessionKey, session)
		c.Set(GinContextSessionIDKey, session.ID.String())
		c.Next()
	}
}
