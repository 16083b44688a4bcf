package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
)

func newRoleFixture() (*RoleService, *mockRoleRepo, *mockSecurityLogRepo, time.Time) {
	roleRepo := new(mockRoleRepo)
	logRepo := new(mockSecurityLogRepo)
	svc := NewRoleService(roleRepo, newTestSecurityLog(logRepo), zap.NewNop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, roleRepo, logRepo, now
}

func TestAssignRoleUnknownRole(t *testing.T) {
	svc, roleRepo, _, _ := newRoleFixture()

	roleRepo.On("FindRoleByID", context.Background(), "ghost").
		Return(nil, domainErrors.ErrRoleNotFound).Once()

	err := svc.AssignRole(context.Background(), models.AssignRoleRequest{
		UserID:     uuid.New(),
		RoleID:     "ghost",
		AssignedBy: "admin@arena.gg",
	})

	assert.ErrorIs(t, err, domainErrors.ErrRoleNotFound)
	roleRepo.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything)
}

func TestAssignRoleRecordsGrant(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()
	expires := now.Add(24 * time.Hour)

	roleRepo.On("FindRoleByID", context.Background(), "moderator").
		Return(&models.Role{ID: "moderator", IsActive: true}, nil).Once()
	roleRepo.On("AssignRole", context.Background(), mock.MatchedBy(func(a *models.RoleAssignment) bool {
		return a.UserID == userID && a.RoleID == "moderator" && a.AssignedAt.Equal(now) && a.ExpiresAt != nil
	})).Return(nil).Once()
	logRepo.On("Create", context.Background(), mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionRoleAssigned && e.Success
	})).Return(nil).Once()

	err := svc.AssignRole(context.Background(), models.AssignRoleRequest{
		UserID:     userID,
		RoleID:     "moderator",
		AssignedBy: "admin@arena.gg",
		ExpiresAt:  &expires,
	})

	require.NoError(t, err)
	roleRepo.AssertExpectations(t)
	logRepo.AssertExpectations(t)
}

func TestHasPermissionExplicitGrantIsLogged(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()

	roleRepo.On("GetActiveRolesForUser", context.Background(), userID, now).
		Return([]*models.Role{{ID: "moderator", Permissions: []string{"chat.moderate"}}}, nil).Once()
	logRepo.On("Create", context.Background(), mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionPermissionGranted && e.Success && *e.UserID == userID
	})).Return(nil).Once()

	allowed, err := svc.HasPermission(context.Background(), userID, "chat.moderate")
	require.NoError(t, err)
	assert.True(t, allowed)
	logRepo.AssertExpectations(t)
}

func TestHasPermissionWildcard(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()

	roleRepo.On("GetActiveRolesForUser", context.Background(), userID, now).
		Return([]*models.Role{{ID: "admin", Permissions: []string{models.PermissionWildcard}}}, nil).Once()
	logRepo.On("Create", context.Background(), mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionPermissionGranted && e.Success
	})).Return(nil).Once()

	allowed, err := svc.HasPermission(context.Background(), userID, "anything.at.all")
	require.NoError(t, err)
	assert.True(t, allowed)
	logRepo.AssertExpectations(t)
}

func TestHasPermissionGrantFailsClosedOnAuditError(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()

	roleRepo.On("GetActiveRolesForUser", context.Background(), userID, now).
		Return([]*models.Role{{ID: "admin", Permissions: []string{models.PermissionWildcard}}}, nil).Once()
	logRepo.On("Create", context.Background(), mock.Anything).
		Return(assert.AnError).Once()

	allowed, err := svc.HasPermission(context.Background(), userID, "security.admin")
	assert.ErrorIs(t, err, domainErrors.ErrAuditWriteFailed)
	assert.False(t, allowed, "an unaudited grant must not stand")
}

func TestHasPermissionDenialIsLogged(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()

	roleRepo.On("GetActiveRolesForUser", context.Background(), userID, now).
		Return([]*models.Role{{ID: "player", Permissions: []string{"tournaments.join"}}}, nil).Once()
	logRepo.On("Create", context.Background(), mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionPermissionDenied && !e.Success
	})).Return(nil).Once()

	allowed, err := svc.HasPermission(context.Background(), userID, "security.admin")
	require.NoError(t, err)
	assert.False(t, allowed)
	logRepo.AssertExpectations(t)
}

func TestHasPermissionNoRoles(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()

	roleRepo.On("GetActiveRolesForUser", context.Background(), userID, now).
		Return([]*models.Role{}, nil).Once()
	logRepo.On("Create", context.Background(), mock.Anything).Return(nil).Once()

	allowed, err := svc.HasPermission(context.Background(), userID, "security.admin")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermissionFailsClosedOnAuditError(t *testing.T) {
	svc, roleRepo, logRepo, now := newRoleFixture()
	userID := uuid.New()

	roleRepo.On("GetActiveRolesForUser", context.Background(), userID, now).
		Return([]*models.Role{}, nil).Once()
	logRepo.On("Create", context.Background(), mock.Anything).
		Return(assert.AnError).Once()

	allowed, err := svc.HasPermission(context.Background(), userID, "security.admin")
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestListAssignmentsKeepsExpiredEdges(t *testing.T) {
	svc, roleRepo, _, now := newRoleFixture()
	userID := uuid.New()
	expired := now.Add(-time.Hour)

	roleRepo.On("ListAssignments", context.Background(), userID).
		Return([]*models.RoleAssignment{
			{UserID: userID, RoleID: "moderator", AssignedBy: "admin@arena.gg", ExpiresAt: &expired},
			{UserID: userID, RoleID: "player", AssignedBy: "system"},
		}, nil).Once()

	assignments, err := svc.ListAssignments(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, assignments, 2, "the grant history must include expired edges")
	assert.Equal(t, "moderator", assignments[0].RoleID)
}

func TestCreateRoleValidation(t *testing.T) {
	svc, roleRepo, _, _ := newRoleFixture()

	_, err := svc.CreateRole(context.Background(), models.CreateRoleRequest{ID: "", Name: "x"})

	assert.Error(t, err)
	roleRepo.AssertNotCalled(t, "CreateRole", mock.Anything, mock.Anything)
}

func TestCreateRoleDefaultsPermissions(t *testing.T) {
	svc, roleRepo, _, _ := newRoleFixture()

	roleRepo.On("CreateRole", context.Background(), mock.MatchedBy(func(r *models.Role) bool {
		return r.ID == "caster" && r.IsActive && r.Permissions != nil && len(r.Permissions) == 0
	})).Return(nil).Once()

	role, err := svc.CreateRole(context.Background(), models.CreateRoleRequest{ID: "caster", Name: "Broadcast caster"})

	require.NoError(t, err)
	assert.NotNil(t, role.Permissions)
}
