package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/events/kafka"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Upsert(ctx context.Context, req models.UpsertUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID, at time.Time) (int, error) {
	args := m.Called(ctx, id, at)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepo) SetLock(ctx context.Context, id uuid.UUID, locked bool, reason *string) error {
	return m.Called(ctx, id, locked, reason).Error(0)
}

func (m *mockUserRepo) SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, secret *string) error {
	return m.Called(ctx, id, enabled, secret).Error(0)
}

func (m *mockUserRepo) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) SetPhoneVerified(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	args := m.Called(ctx, tokenHash)
	if s := args.Get(0); s != nil {
		return s.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) TouchLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockSessionRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID, exceptID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, exceptID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, params models.ListSessionsParams) ([]*models.Session, error) {
	args := m.Called(ctx, userID, params)
	if s := args.Get(0); s != nil {
		return s.([]*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	args := m.Called(ctx, userID, now)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockSecurityLogRepo struct {
	mock.Mock
}

func (m *mockSecurityLogRepo) Create(ctx context.Context, event *models.SecurityEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockSecurityLogRepo) List(ctx context.Context, userID *uuid.UUID, limit int) ([]*models.SecurityEvent, error) {
	args := m.Called(ctx, userID, limit)
	if e := args.Get(0); e != nil {
		return e.([]*models.SecurityEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSecurityLogRepo) CountByUserActionSince(ctx context.Context, userID uuid.UUID, action models.SecurityAction, since time.Time) (int, error) {
	args := m.Called(ctx, userID, action, since)
	return args.Int(0), args.Error(1)
}

func (m *mockSecurityLogRepo) HasSuccessfulEventFromIP(ctx context.Context, userID uuid.UUID, ipAddress string) (bool, error) {
	args := m.Called(ctx, userID, ipAddress)
	return args.Bool(0), args.Error(1)
}

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) Create(ctx context.Context, token *models.VerificationToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepo) Consume(ctx context.Context, tokenHash string, tokenType models.VerificationTokenType, usedAt time.Time) (*models.VerificationToken, error) {
	args := m.Called(ctx, tokenHash, tokenType, usedAt)
	if t := args.Get(0); t != nil {
		return t.(*models.VerificationToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) CreateRole(ctx context.Context, role *models.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepo) FindRoleByID(ctx context.Context, id string) (*models.Role, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Role), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleRepo) AssignRole(ctx context.Context, assignment *models.RoleAssignment) error {
	return m.Called(ctx, assignment).Error(0)
}

func (m *mockRoleRepo) GetActiveRolesForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Role, error) {
	args := m.Called(ctx, userID, now)
	if r := args.Get(0); r != nil {
		return r.([]*models.Role), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleRepo) ListAssignments(ctx context.Context, userID uuid.UUID) ([]*models.RoleAssignment, error) {
	args := m.Called(ctx, userID)
	if a := args.Get(0); a != nil {
		return a.([]*models.RoleAssignment), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestSecurityLog(logRepo *mockSecurityLogRepo) *SecurityLogService {
	return NewSecurityLogService(logRepo, kafka.NopPublisher{}, zap.NewNop())
}
