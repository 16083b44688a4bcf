package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionWildcard in a role's permission set grants every permission.
const PermissionWildcard = "*"

// Role represents a named bundle of permission strings. ID is a short
// VARCHAR slug ("admin", "moderator"), not a UUID.
type Role struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Permissions []string  `json:"permissions" db:"permissions"` // Stored as JSONB array
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// HasPermission reports whether the role grants the given permission,
// either explicitly or via the wildcard.
func (r *Role) HasPermission(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission || p == PermissionWildcard {
			return true
		}
	}
	return false
}

// RoleAssignment is the many-to-many edge between users and roles, with an
// optional expiry. An assignment whose ExpiresAt is in the past is treated as
// not-present without being deleted (soft expiry by filter).
type RoleAssignment struct {
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	RoleID     string     `json:"role_id" db:"role_id"`
	AssignedBy string     `json:"assigned_by" db:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at" db:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

// AssignRoleRequest carries the data for granting a role to a user.
type AssignRoleRequest struct {
	UserID     uuid.UUID  `json:"user_id" validate:"required"`
	RoleID     string     `json:"role_id" validate:"required,max=50"`
	AssignedBy string     `json:"assigned_by" validate:"required,max=255"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// CreateRoleRequest carries the data for creating a role.
type CreateRoleRequest struct {
	ID          string   `json:"id" validate:"required,max=50"`
	Name        string   `json:"name" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions,omitempty"`
}
