package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the auth-relevant view of a platform account. The wider
// platform owns profile data (display name, avatar, wallet); this service
// owns the security columns and mutates them only through AuthService.
type User struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Username            string     `json:"username" db:"username"`
	Email               string     `json:"email" db:"email"`
	AccountLocked       bool       `json:"account_locked" db:"account_locked"`
	LockReason          *string    `json:"lock_reason,omitempty" db:"lock_reason"`
	FailedLoginAttempts int        `json:"failed_login_attempts" db:"failed_login_attempts"`
	LastFailedLoginAt   *time.Time `json:"last_failed_login_at,omitempty" db:"last_failed_login_at"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	LoginCount          int        `json:"login_count" db:"login_count"`
	TwoFactorEnabled    bool       `json:"two_factor_enabled" db:"two_factor_enabled"`
	TwoFactorSecret     *string    `json:"-" db:"two_factor_secret"`
	EmailVerified       bool       `json:"email_verified" db:"email_verified"`
	PhoneVerified       bool       `json:"phone_verified" db:"phone_verified"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// EnhancedUserProfile is the decorated view returned to the middleware and
// admin endpoints: the user record plus the security context derived from it.
type EnhancedUserProfile struct {
	User           *User   `json:"user"`
	Roles          []*Role `json:"roles"`
	ActiveSessions int     `json:"active_sessions"`
	RiskScore      int     `json:"risk_score"`
}

// UpsertUserRequest carries the identity fields used when a user record is
// created on first authentication.
type UpsertUserRequest struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
