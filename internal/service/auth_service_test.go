package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/random"
)

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo    *mockUserRepo
	sessionRepo *mockSessionRepo
	logRepo     *mockSecurityLogRepo
	tokenRepo   *mockTokenRepo
	roleRepo    *mockRoleRepo
	auth        *AuthService
	now         time.Time
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.userRepo = new(mockUserRepo)
	s.sessionRepo = new(mockSessionRepo)
	s.logRepo = new(mockSecurityLogRepo)
	s.tokenRepo = new(mockTokenRepo)
	s.roleRepo = new(mockRoleRepo)
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	nop := zap.NewNop()

	securityLog := newTestSecurityLog(s.logRepo)
	sessions := NewSessionService(s.sessionRepo, securityLog, nop, 0)
	sessions.now = func() time.Time { return s.now }
	lockout := NewLockoutService(s.userRepo, s.sessionRepo, securityLog, nop, 0)
	lockout.now = func() time.Time { return s.now }
	risk := NewRiskService(s.logRepo, nop)
	risk.now = func() time.Time { return s.now }
	roles := NewRoleService(s.roleRepo, securityLog, nop)
	roles.now = func() time.Time { return s.now }
	verification := NewVerificationService(s.tokenRepo, s.userRepo, securityLog, nop, 0)
	verification.now = func() time.Time { return s.now }

	s.auth = NewAuthService(s.userRepo, sessions, lockout, risk, roles, verification, securityLog, nop, "arena-gg")
}

func (s *AuthServiceTestSuite) TestAuthenticateSuccess() {
	ctx := context.Background()
	userID := uuid.New()
	token := "opaque-bearer"
	session := &models.Session{
		ID: uuid.New(), UserID: userID,
		ExpiresAt: s.now.Add(time.Hour), IsActive: true,
	}

	s.sessionRepo.On("FindByTokenHash", ctx, random.HashToken(token)).Return(session, nil).Once()
	s.sessionRepo.On("TouchLastAccessed", ctx, session.ID, s.now).Return(nil).Once()
	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID}, nil).Once()

	user, got, err := s.auth.Authenticate(ctx, token, nil, nil)

	s.Require().NoError(err)
	s.Equal(userID, user.ID)
	s.Equal(session.ID, got.ID)
}

func (s *AuthServiceTestSuite) TestAuthenticateLockedAccountRefusedAndLogged() {
	ctx := context.Background()
	userID := uuid.New()
	token := "opaque-bearer"
	ip := "203.0.113.7"
	session := &models.Session{
		ID: uuid.New(), UserID: userID,
		ExpiresAt: s.now.Add(time.Hour), IsActive: true,
	}

	s.sessionRepo.On("FindByTokenHash", ctx, random.HashToken(token)).Return(session, nil).Once()
	s.sessionRepo.On("TouchLastAccessed", ctx, session.ID, s.now).Return(nil).Once()
	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID, AccountLocked: true}, nil).Once()
	s.logRepo.On("Create", ctx, mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionLockedAccountAccess && !e.Success && e.RiskScore == RiskScoreAccountLocked
	})).Return(nil).Once()

	_, _, err := s.auth.Authenticate(ctx, token, &ip, nil)

	s.ErrorIs(err, domainErrors.ErrAccountLocked)
	s.logRepo.AssertExpectations(s.T())
}

func (s *AuthServiceTestSuite) TestAuthenticateRevokedSession() {
	ctx := context.Background()
	token := "opaque-bearer"
	session := &models.Session{
		ID: uuid.New(), UserID: uuid.New(),
		ExpiresAt: s.now.Add(time.Hour), IsActive: false,
	}
	s.sessionRepo.On("FindByTokenHash", ctx, random.HashToken(token)).Return(session, nil).Once()

	_, _, err := s.auth.Authenticate(ctx, token, nil, nil)

	s.ErrorIs(err, domainErrors.ErrSessionRevoked)
	s.userRepo.AssertNotCalled(s.T(), "FindByID", mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestLoginLockedAccountRefused() {
	ctx := context.Background()
	userID := uuid.New()

	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID, AccountLocked: true}, nil).Once()
	s.logRepo.On("Create", ctx, mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionLockedAccountAccess
	})).Return(nil).Once()

	_, err := s.auth.Login(ctx, userID, nil, nil)

	s.ErrorIs(err, domainErrors.ErrAccountLocked)
	s.sessionRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestLoginSuccessMintsSession() {
	ctx := context.Background()
	userID := uuid.New()
	ip := "203.0.113.7"
	ua := "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0"

	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID}, nil).Once()
	s.userRepo.On("RecordSuccessfulLogin", ctx, userID, s.now).Return(nil).Once()
	s.logRepo.On("Create", ctx, mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionSuccessfulLogin
	})).Return(nil).Once()
	s.sessionRepo.On("Create", ctx, mock.AnythingOfType("*models.Session")).Return(nil).Once()
	s.logRepo.On("Create", ctx, mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionSessionCreated
	})).Return(nil).Once()

	session, err := s.auth.Login(ctx, userID, &ip, &ua)

	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal(userID, session.UserID)
}

func (s *AuthServiceTestSuite) TestEnableTwoFactorAlreadyEnabled() {
	ctx := context.Background()
	userID := uuid.New()

	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID, TwoFactorEnabled: true}, nil).Once()

	_, err := s.auth.EnableTwoFactor(ctx, userID)

	s.ErrorIs(err, domainErrors.Err2FAAlreadyEnabled)
	s.userRepo.AssertNotCalled(s.T(), "SetTwoFactor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestEnableTwoFactorStoresSecret() {
	ctx := context.Background()
	userID := uuid.New()

	s.userRepo.On("FindByID", ctx, userID).
		Return(&models.User{ID: userID, Email: "player@arena.gg"}, nil).Once()
	s.userRepo.On("SetTwoFactor", ctx, userID, true, mock.AnythingOfType("*string")).Return(nil).Once()
	s.logRepo.On("Create", ctx, mock.MatchedBy(func(e *models.SecurityEvent) bool {
		return e.Action == models.ActionTwoFactorEnabled
	})).Return(nil).Once()

	secret, err := s.auth.EnableTwoFactor(ctx, userID)

	s.Require().NoError(err)
	s.NotEmpty(secret)
}

func (s *AuthServiceTestSuite) TestDisableTwoFactorNotEnabled() {
	ctx := context.Background()
	userID := uuid.New()

	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID}, nil).Once()

	err := s.auth.DisableTwoFactor(ctx, userID)

	s.ErrorIs(err, domainErrors.Err2FANotEnabled)
}

func (s *AuthServiceTestSuite) TestEnhanceUserProfile() {
	ctx := context.Background()
	userID := uuid.New()
	ip := "203.0.113.7"

	s.userRepo.On("FindByID", ctx, userID).Return(&models.User{ID: userID}, nil).Once()
	s.roleRepo.On("GetActiveRolesForUser", ctx, userID, s.now).
		Return([]*models.Role{{ID: "player"}}, nil).Once()
	s.sessionRepo.On("CountActiveByUser", ctx, userID, s.now).Return(2, nil).Once()
	s.logRepo.On("CountByUserActionSince", ctx, userID, models.ActionFailedLogin, s.now.Add(-RiskFailureWindow)).
		Return(1, nil).Once()
	s.logRepo.On("HasSuccessfulEventFromIP", ctx, userID, ip).Return(true, nil).Once()

	profile, err := s.auth.EnhanceUserProfile(ctx, userID, &ip)

	s.Require().NoError(err)
	s.Equal(userID, profile.User.ID)
	s.Len(profile.Roles, 1)
	s.Equal(2, profile.ActiveSessions)
	s.Equal(RiskFailureWeight, profile.RiskScore)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
