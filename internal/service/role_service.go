package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/metrics"
)

// RoleService manages roles, time-bounded role assignments and permission
// checks. Assignment expiry is re-evaluated on every read; nothing is cached
// across calls, since a grant may have expired since the last check.
type RoleService struct {
	roleRepo    repository.RoleRepository
	securityLog *SecurityLogService
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewRoleService creates a new RoleService.
func NewRoleService(
	roleRepo repository.RoleRepository,
	securityLog *SecurityLogService,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo:    roleRepo,
		securityLog: securityLog,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// CreateRole persists a new role definition.
func (s *RoleService) CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid create role request: %w", err)
	}
	role := &models.Role{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		IsActive:    true,
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// AssignRole grants a role to a user, optionally time-bounded, and records
// the grant in the security log. The role must exist; assigning a role twice
// surfaces the store's conflict.
func (s *RoleService) AssignRole(ctx context.Context, req models.AssignRoleRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid assign role request: %w", err)
	}
	if _, err := s.roleRepo.FindRoleByID(ctx, req.RoleID); err != nil {
		return err
	}

	assignment := &models.RoleAssignment{
		UserID:     req.UserID,
		RoleID:     req.RoleID,
		AssignedBy: req.AssignedBy,
		AssignedAt: s.now(),
		ExpiresAt:  req.ExpiresAt,
	}
	if err := s.roleRepo.AssignRole(ctx, assignment); err != nil {
		return err
	}

	var expires *string
	if req.ExpiresAt != nil {
		v := req.ExpiresAt.Format(time.RFC3339)
		expires = &v
	}
	return s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID: &req.UserID,
		Action: models.ActionRoleAssigned,
		Details: marshalDetails(models.RoleEventDetails{
			RoleID:     req.RoleID,
			AssignedBy: req.AssignedBy,
			ExpiresAt:  expires,
		}),
		Success: true,
	})
}

// GetActiveRoles returns the roles currently effective for the user: the
// role itself active and the assignment unexpired as of this call.
func (s *RoleService) GetActiveRoles(ctx context.Context, userID uuid.UUID) ([]*models.Role, error) {
	return s.roleRepo.GetActiveRolesForUser(ctx, userID, s.now())
}

// ListAssignments returns the user's assignment edges, expired grants
// included. This is the audit view of "who granted what, when"; effective
// permissions come from GetActiveRoles.
func (s *RoleService) ListAssignments(ctx context.Context, userID uuid.UUID) ([]*models.RoleAssignment, error) {
	return s.roleRepo.ListAssignments(ctx, userID)
}

// HasPermission reports whether any of the user's active roles grants the
// permission, explicitly or via the wildcard. Both outcomes are recorded in
// the security log; a log write failure denies the permission (fail closed),
// so no unaudited access decision can stand.
func (s *RoleService) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	roles, err := s.roleRepo.GetActiveRolesForUser(ctx, userID, s.now())
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if role.HasPermission(permission) {
			metrics.PermissionChecksTotal.WithLabelValues("granted").Inc()
			err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
				UserID: &userID,
				Action: models.ActionPermissionGranted,
				Details: marshalDetails(models.PermissionEventDetails{
					Permission: permission,
					GrantedBy:  role.ID,
				}),
				Success: true,
			})
			if err != nil {
				return false, err
			}
			return true, nil
		}
	}
	metrics.PermissionChecksTotal.WithLabelValues("denied").Inc()

	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:    &userID,
		Action:    models.ActionPermissionDenied,
		Details:   marshalDetails(models.PermissionEventDetails{Permission: permission}),
		Success:   false,
		RiskScore: 0,
	})
	if err != nil {
		return false, err
	}
	return false, nil
}
