package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SecurityAction identifies the kind of authentication-relevant action an
// event records.
type SecurityAction string

const (
	ActionSessionCreated           SecurityAction = "session_created"
	ActionSessionRevoked           SecurityAction = "session_revoked"
	ActionAllSessionsRevoked       SecurityAction = "all_sessions_revoked"
	ActionFailedLogin              SecurityAction = "failed_login"
	ActionSuccessfulLogin          SecurityAction = "successful_login"
	ActionAccountLocked            SecurityAction = "account_locked"
	ActionAccountUnlocked          SecurityAction = "account_unlocked"
	ActionTwoFactorEnabled         SecurityAction = "two_factor_enabled"
	ActionTwoFactorDisabled        SecurityAction = "two_factor_disabled"
	ActionVerificationTokenCreated SecurityAction = "verification_token_created"
	ActionVerificationTokenUsed    SecurityAction = "verification_token_used"
	ActionRoleAssigned             SecurityAction = "role_assigned"
	ActionPermissionGranted        SecurityAction = "permission_granted"
	ActionPermissionDenied         SecurityAction = "permission_denied"
	ActionLockedAccountAccess      SecurityAction = "locked_account_access"
)

// SecurityEvent is one append-only row of the security log. The log is the
// system of record for "what happened"; no entity ever updates or deletes a
// row.
type SecurityEvent struct {
	ID        int64           `json:"id" db:"id"` // BIGSERIAL
	UserID    *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action    SecurityAction  `json:"action" db:"action"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"` // JSONB, typed payload per action
	IPAddress *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent *string         `json:"user_agent,omitempty" db:"user_agent"`
	Success   bool            `json:"success" db:"success"`
	RiskScore int             `json:"risk_score" db:"risk_score"` // 0-100
	Location  *string         `json:"location,omitempty" db:"location"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// RecordSecurityEventRequest carries the data for appending one log entry.
type RecordSecurityEventRequest struct {
	UserID    *uuid.UUID
	Action    SecurityAction
	Details   json.RawMessage
	IPAddress *string
	UserAgent *string
	Success   bool
	RiskScore int
	Location  *string
}

// Typed details payloads, one per action that carries structured context.

// SessionEventDetails accompanies session_created and session_revoked.
type SessionEventDetails struct {
	SessionID string     `json:"session_id"`
	Device    DeviceInfo `json:"device,omitempty"`
}

// RevokeAllDetails accompanies all_sessions_revoked.
type RevokeAllDetails struct {
	Revoked   int     `json:"revoked"`
	ExceptID  *string `json:"except_session_id,omitempty"`
	RevokedBy string  `json:"revoked_by,omitempty"`
}

// LockEventDetails accompanies account_locked and account_unlocked.
type LockEventDetails struct {
	Reason          string `json:"reason,omitempty"`
	SessionsRevoked int    `json:"sessions_revoked"`
}

// RoleEventDetails accompanies role_assigned.
type RoleEventDetails struct {
	RoleID     string  `json:"role_id"`
	AssignedBy string  `json:"assigned_by"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}

// TokenEventDetails accompanies verification token events.
type TokenEventDetails struct {
	TokenType string `json:"token_type"`
}

// PermissionEventDetails accompanies permission_granted and
// permission_denied. GrantedBy names the role whose permission set matched;
// empty on denial.
type PermissionEventDetails struct {
	Permission string `json:"permission"`
	GrantedBy  string `json:"granted_by,omitempty"`
}
