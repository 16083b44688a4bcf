package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/service"
)

// InternalHandler exposes the service-to-service surface: the API gateway
// calls these after verifying credentials upstream. This service never sees
// passwords; it only records outcomes and mints sessions.
type InternalHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(auth *service.AuthService, logger *zap.Logger) *InternalHandler {
	return &InternalHandler{auth: auth, logger: logger}
}

func (h *InternalHandler) writeError(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

type createSessionRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	Username string    `json:"username" binding:"required"`
	Email    string    `json:"email" binding:"required"`
}

// CreateSession mints a session after a successful upstream credential check.
// The user record is upserted first, the lock state is enforced, the
// successful login is recorded and the plaintext token is returned exactly
// once.
func (h *InternalHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, username and email required"})
		return
	}
	ip := c.ClientIP()
	ua := c.Request.UserAgent()

	user, err := h.auth.EnsureUser(c.Request.Context(), models.UpsertUserRequest{
		ID:       req.UserID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	session, err := h.auth.Login(c.Request.Context(), user.ID, &ip, &ua)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":   session.Token,
		"session": session,
	})
}

type loginFailureRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// RecordLoginFailure records a failed credential check. Crossing the failure
// threshold locks the account and revokes its sessions as a side effect.
func (h *InternalHandler) RecordLoginFailure(c *gin.Context) {
	var req loginFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	ip := c.ClientIP()
	ua := c.Request.UserAgent()
	if err := h.auth.TrackFailedLogin(c.Request.Context(), req.UserID, &ip, &ua); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRiskScore returns the advisory risk score for a user.
func (h *InternalHandler) GetRiskScore(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	ip := c.Query("ip_address")
	var ipPtr *string
	if ip != "" {
		ipPtr = &ip
	}
	score, err := h.auth.ComputeRiskScore(c.Request.Context(), userID, ipPtr, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "risk_score": score, "computed_at": time.Now().UTC()})
}

type issueTokenRequest struct {
	UserID uuid.UUID                    `json:"user_id" binding:"required"`
	Type   models.VerificationTokenType `json:"type" binding:"required"`
}

// IssueVerificationToken mints a single-use verification token for delivery
// by the upstream notification pipeline. The plaintext is returned once.
func (h *InternalHandler) IssueVerificationToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and type required"})
		return
	}
	token, err := h.auth.IssueVerificationToken(c.Request.Context(), req.UserID, req.Type, 0)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "type": req.Type})
}
