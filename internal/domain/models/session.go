package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated device/browser login, identified by an
// opaque bearer token. Only the SHA-256 hash of the token is stored; the
// plaintext is returned to the caller exactly once, at creation.
type Session struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash      string     `json:"-" db:"token_hash"`
	DeviceInfo     DeviceInfo `json:"device_info" db:"device_info"` // Stored as JSONB
	IPAddress      *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      *string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at" db:"last_accessed_at"`
	ExpiresAt      time.Time  `json:"expires_at" db:"expires_at"`
	IsActive       bool       `json:"is_active" db:"is_active"`

	// Token holds the plaintext session token. Populated only on creation,
	// never loaded from storage.
	Token string `json:"token,omitempty" db:"-"`
}

// IsValid reports whether the session grants access at the given instant.
// Expiry is enforced at read time; rows are never deleted by the passage of
// time alone.
func (s *Session) IsValid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// ListSessionsParams defines filters for listing a user's sessions.
type ListSessionsParams struct {
	ActiveOnly bool `json:"active_only"`
	Limit      int  `json:"limit"`
}
