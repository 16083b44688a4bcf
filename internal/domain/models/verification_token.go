package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationTokenType defines the purposes a verification token can serve.
type VerificationTokenType string

const (
	TokenTypeEmailVerification VerificationTokenType = "email_verification"
	TokenTypePhoneVerification VerificationTokenType = "phone_verification"
	TokenTypePasswordReset     VerificationTokenType = "password_reset"
)

// IsValid reports whether t is one of the known token types.
func (t VerificationTokenType) IsValid() bool {
	switch t {
	case TokenTypeEmailVerification, TokenTypePhoneVerification, TokenTypePasswordReset:
		return true
	}
	return false
}

// VerificationToken is a single-use, expiring secret proving control of an
// email/phone or authorizing a password reset. Once used it is permanently
// invalid regardless of expiry. Only the token hash is stored.
type VerificationToken struct {
	ID        uuid.UUID             `json:"id" db:"id"`
	UserID    uuid.UUID             `json:"user_id" db:"user_id"`
	TokenHash string                `json:"-" db:"token_hash"`
	Type      VerificationTokenType `json:"type" db:"type"`
	ExpiresAt time.Time             `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time            `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time             `json:"created_at" db:"created_at"`
}

// Used reports whether the token has already been consumed.
func (v *VerificationToken) Used() bool {
	return v.UsedAt != nil
}
