package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
)

// RoleRepositoryPostgres implements repository.RoleRepository for PostgreSQL.
// Permissions are stored as a JSONB string array on the role row.
type RoleRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewRoleRepositoryPostgres creates a new instance of RoleRepositoryPostgres.
func NewRoleRepositoryPostgres(pool *pgxpool.Pool) *RoleRepositoryPostgres {
	return &RoleRepositoryPostgres{pool: pool}
}

// CreateRole persists a new role.
func (r *RoleRepositoryPostgres) CreateRole(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (id, name, description, permissions, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		role.ID, role.Name, role.Description, role.Permissions, role.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("role '%s': %w", role.ID, domainErrors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// FindRoleByID retrieves a role by its ID.
func (r *RoleRepositoryPostgres) FindRoleByID(ctx context.Context, id string) (*models.Role, error) {
	query := `
		SELECT id, name, description, permissions, is_active, created_at, updated_at
		FROM roles
		WHERE id = $1
	`
	role := &models.Role{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&role.ID, &role.Name, &role.Description, &role.Permissions,
		&role.IsActive, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by ID: %w", err)
	}
	return role, nil
}

// AssignRole inserts a user-role edge.
func (r *RoleRepositoryPostgres) AssignRole(ctx context.Context, assignment *models.RoleAssignment) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, assigned_by, assigned_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, query,
		assignment.UserID, assignment.RoleID, assignment.AssignedBy,
		assignment.AssignedAt, assignment.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation: edge already present
				return fmt.Errorf("role '%s' already assigned to user %s: %w",
					assignment.RoleID, assignment.UserID, domainErrors.ErrAlreadyExists)
			case "23503": // foreign_key_violation
				return fmt.Errorf("user or role missing for assignment: %w", domainErrors.ErrNotFound)
			}
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// GetActiveRolesForUser returns roles that are themselves active and whose
// assignment has not expired as of now. Expired edges stay in storage and are
// filtered out here, so every call re-evaluates expiry.
func (r *RoleRepositoryPostgres) GetActiveRolesForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Role, error) {
	query := `
		SELECT r.id, r.name, r.description, r.permissions, r.is_active, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		  AND r.is_active = TRUE
		  AND (ur.expires_at IS NULL OR ur.expires_at > $2)
		ORDER BY r.id
	`
	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active roles: %w", err)
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role := &models.Role{}
		errScan := rows.Scan(
			&role.ID, &role.Name, &role.Description, &role.Permissions,
			&role.IsActive, &role.CreatedAt, &role.UpdatedAt,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", errScan)
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}
	return roles, nil
}

// ListAssignments returns all assignment edges for a user, expired ones
// included (the historical trail is retained deliberately).
func (r *RoleRepositoryPostgres) ListAssignments(ctx context.Context, userID uuid.UUID) ([]*models.RoleAssignment, error) {
	query := `
		SELECT user_id, role_id, assigned_by, assigned_at, expires_at
		FROM user_roles
		WHERE user_id = $1
		ORDER BY assigned_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.RoleAssignment
	for rows.Next() {
		a := &models.RoleAssignment{}
		errScan := rows.Scan(&a.UserID, &a.RoleID, &a.AssignedBy, &a.AssignedAt, &a.ExpiresAt)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", errScan)
		}
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}
	return assignments, nil
}

var _ repository.RoleRepository = (*RoleRepositoryPostgres)(nil)
