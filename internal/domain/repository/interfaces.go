// Package repository defines the persistence interfaces consumed by the
// service layer. The PostgreSQL implementations live in the postgres
// subpackage; tests substitute testify mocks.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
)

// UserRepository provides access to the auth-owned columns of the users
// table. Counter mutations are atomic at the store layer (SQL col = col + 1),
// not read-then-write, so concurrent failures can never under-count.
type UserRepository interface {
	// Upsert creates the user record on first authentication or refreshes
	// the identity fields on subsequent calls.
	Upsert(ctx context.Context, req models.UpsertUserRequest) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// IncrementFailedLoginAttempts atomically bumps the failure counter and
	// stamps last_failed_login_at, returning the post-increment count.
	IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID, at time.Time) (int, error)
	// RecordSuccessfulLogin stamps last_login_at, increments login_count and
	// resets the failure counter to zero in one statement.
	RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	SetLock(ctx context.Context, id uuid.UUID, locked bool, reason *string) error
	SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, secret *string) error
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	SetPhoneVerified(ctx context.Context, id uuid.UUID) error
}

// SessionRepository persists session records. Sessions are soft-revoked
// (is_active = false) and soft-expired (filtered at read time), never deleted
// by ordinary operations; DeleteExpired exists for a periodic reaper.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	// TouchLastAccessed bumps last_accessed_at. Advisory telemetry:
	// concurrent touches race last-write-wins.
	TouchLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error
	// Revoke sets is_active = false. Revoking an already-revoked session is
	// a no-op that still succeeds.
	Revoke(ctx context.Context, id uuid.UUID) error
	// RevokeAllForUser revokes every active session of the user, optionally
	// excluding one, and returns the number revoked.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, exceptID *uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params models.ListSessionsParams) ([]*models.Session, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SecurityLogRepository is the append-only audit store. There is no update
// or delete; rows ordered by created_at are the input to risk scoring.
type SecurityLogRepository interface {
	Create(ctx context.Context, event *models.SecurityEvent) error
	// List returns entries newest-first, optionally filtered to one user.
	List(ctx context.Context, userID *uuid.UUID, limit int) ([]*models.SecurityEvent, error)
	CountByUserActionSince(ctx context.Context, userID uuid.UUID, action models.SecurityAction, since time.Time) (int, error)
	// HasSuccessfulEventFromIP reports whether the IP has ever appeared in a
	// successful entry for the user.
	HasSuccessfulEventFromIP(ctx context.Context, userID uuid.UUID, ipAddress string) (bool, error)
}

// VerificationTokenRepository persists single-use verification tokens.
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *models.VerificationToken) error
	// Consume atomically marks an unused, unexpired token of the given type
	// as used and returns it. Two concurrent calls with the same token can
	// never both succeed; the loser gets ErrTokenNotFound.
	Consume(ctx context.Context, tokenHash string, tokenType models.VerificationTokenType, usedAt time.Time) (*models.VerificationToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RoleRepository persists roles and user-role assignment edges. Expired
// assignments stay in storage and are filtered out at read time.
type RoleRepository interface {
	CreateRole(ctx context.Context, role *models.Role) error
	FindRoleByID(ctx context.Context, id string) (*models.Role, error)
	AssignRole(ctx context.Context, assignment *models.RoleAssignment) error
	// GetActiveRolesForUser returns roles that are themselves active and
	// whose assignment has not expired as of now.
	GetActiveRolesForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Role, error)
	ListAssignments(ctx context.Context, userID uuid.UUID) ([]*models.RoleAssignment, error)
}
