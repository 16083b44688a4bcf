// Package http carries the thin HTTP surface of the auth service. The wider
// platform fronts this service with its own API gateway; the routes here are
// the session/self-service and admin endpoints that must live next to the
// auth core.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/handler/http/middleware"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/service"
)

// AuthHandler exposes the orchestrator over HTTP.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case domainErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case domainErrors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case domainErrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case domainErrors.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *AuthHandler) writeError(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

func contextUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.GinContextUserIDKey))
	return id, err == nil
}

// GetProfile returns the authenticated user's enhanced security profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	ip := c.ClientIP()
	profile, err := h.auth.EnhanceUserProfile(c.Request.Context(), userID, &ip)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListSessions returns the authenticated user's sessions.
func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	sessions, err := h.auth.ListSessions(c.Request.Context(), userID, models.ListSessionsParams{
		ActiveOnly: c.Query("active_only") == "true",
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// RevokeOtherSessions logs the user out of every device but the current one.
func (h *AuthHandler) RevokeOtherSessions(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var exceptID *uuid.UUID
	if sid, err := uuid.Parse(c.GetString(middleware.GinContextSessionIDKey)); err == nil {
		exceptID = &sid
	}
	revoked, err := h.auth.RevokeAllSessions(c.Request.Context(), userID, exceptID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// RevokeSession logs the user out of one device. Revoking someone else's
// session is refused and audited.
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if err := h.auth.RevokeSession(c.Request.Context(), sessionID, &userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EnableTwoFactor provisions a TOTP secret for the authenticated user. The
// secret is returned once; the client completes enrollment out of band.
func (h *AuthHandler) EnableTwoFactor(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	secret, err := h.auth.EnableTwoFactor(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret})
}

// DisableTwoFactor clears the user's TOTP secret.
func (h *AuthHandler) DisableTwoFactor(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if err := h.auth.DisableTwoFactor(c.Request.Context(), userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type consumeTokenRequest struct {
	Token string                       `json:"token" binding:"required"`
	Type  models.VerificationTokenType `json:"type" binding:"required"`
}

// ConsumeVerificationToken redeems a single-use verification token. The
// route is unauthenticated: password-reset callers hold no session.
func (h *AuthHandler) ConsumeVerificationToken(c *gin.Context) {
	var req consumeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and type required"})
		return
	}
	userID, err := h.auth.ConsumeVerificationToken(c.Request.Context(), req.Token, req.Type)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

type lockRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LockAccount is the admin endpoint for locking a user out.
func (h *AuthHandler) LockAccount(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}
	if err := h.auth.LockAccount(c.Request.Context(), userID, req.Reason); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnlockAccount is the admin endpoint for lifting a lock.
func (h *AuthHandler) UnlockAccount(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.auth.UnlockAccount(c.Request.Context(), userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUserProfile is the admin view of another user's security profile.
func (h *AuthHandler) GetUserProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	profile, err := h.auth.EnhanceUserProfile(c.Request.Context(), userID, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreateRole is the admin endpoint for registering a role definition.
func (h *AuthHandler) CreateRole(c *gin.Context) {
	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role payload"})
		return
	}
	role, err := h.auth.CreateRole(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

type assignRoleRequest struct {
	RoleID    string     `json:"role_id" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// AssignRole is the admin endpoint for granting a role, optionally
// time-bounded. The grantor is the authenticated admin.
func (h *AuthHandler) AssignRole(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role_id required"})
		return
	}
	err = h.auth.AssignRole(c.Request.Context(), models.AssignRoleRequest{
		UserID:     targetID,
		RoleID:     req.RoleID,
		AssignedBy: c.GetString(middleware.GinContextUserIDKey),
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUserRoles is the admin endpoint listing a user's currently active roles
// alongside the full grant history (expired assignments included).
func (h *AuthHandler) GetUserRoles(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	roles, err := h.auth.GetActiveRoles(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	assignments, err := h.auth.GetRoleAssignments(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles, "assignments": assignments})
}

// GetSecurityLog is the admin endpoint for the audit trail, newest first.
func (h *AuthHandler) GetSecurityLog(c *gin.Context) {
	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		userID = &id
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	entries, err := h.auth.GetSecurityLog(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
