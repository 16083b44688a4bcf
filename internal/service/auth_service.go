package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/device"
)

// AuthService is the façade composing the session, lockout, risk, role and
// verification services behind one coherent API. It is constructed once at
// process start with injected store handles and passed to consumers
// explicitly; there is no package-level instance.
type AuthService struct {
	userRepo     repository.UserRepository
	sessions     *SessionService
	lockout      *LockoutService
	risk         *RiskService
	roles        *RoleService
	verification *VerificationService
	securityLog  *SecurityLogService
	logger       *zap.Logger
	totpIssuer   string
}

// NewAuthService creates the orchestrator from its collaborators.
func NewAuthService(
	userRepo repository.UserRepository,
	sessions *SessionService,
	lockout *LockoutService,
	risk *RiskService,
	roles *RoleService,
	verification *VerificationService,
	securityLog *SecurityLogService,
	logger *zap.Logger,
	totpIssuer string,
) *AuthService {
	if totpIssuer == "" {
		totpIssuer = "arena-gg"
	}
	return &AuthService{
		userRepo:     userRepo,
		sessions:     sessions,
		lockout:      lockout,
		risk:         risk,
		roles:        roles,
		verification: verification,
		securityLog:  securityLog,
		logger:       logger,
		totpIssuer:   totpIssuer,
	}
}

// EnsureUser creates the auth-side user record on first authentication, or
// refreshes its identity fields. Security columns are never touched here.
func (s *AuthService) EnsureUser(ctx context.Context, req models.UpsertUserRequest) (*models.User, error) {
	return s.userRepo.Upsert(ctx, req)
}

// GetUser retrieves the auth-side user record.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// EnhanceUserProfile decorates a user record with its security context:
// active roles, active session count and the current risk score.
func (s *AuthService) EnhanceUserProfile(ctx context.Context, userID uuid.UUID, ipAddress *string) (*models.EnhancedUserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.GetActiveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	score, err := s.risk.Score(ctx, userID, ipAddress, nil)
	if err != nil {
		return nil, err
	}
	return &models.EnhancedUserProfile{
		User:           user,
		Roles:          roles,
		ActiveSessions: sessions,
		RiskScore:      score,
	}, nil
}

// --- Session lifecycle ---

// CreateSession issues a session for the user. Device info is parsed from
// the User-Agent into a structured record before storage.
func (s *AuthService) CreateSession(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) (*models.Session, error) {
	var deviceInfo models.DeviceInfo
	if userAgent != nil {
		deviceInfo = device.ParseUserAgent(*userAgent)
	}
	return s.sessions.Create(ctx, userID, deviceInfo, ipAddress, userAgent)
}

// ValidateSession resolves a bearer token to a currently valid session.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	return s.sessions.Validate(ctx, token)
}

// Authenticate is the middleware entry point: it validates the bearer token
// and loads the owning user, rejecting locked accounts. An access attempt on
// a locked account is recorded at maximum risk even as it is refused.
func (s *AuthService) Authenticate(ctx context.Context, token string, ipAddress, userAgent *string) (*models.User, *models.Session, error) {
	session, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user.AccountLocked {
		logErr := s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
			UserID:    &user.ID,
			Action:    models.ActionLockedAccountAccess,
			IPAddress: ipAddress,
			UserAgent: userAgent,
			Success:   false,
			RiskScore: RiskScoreAccountLocked,
		})
		if logErr != nil {
			return nil, nil, logErr
		}
		return nil, nil, fmt.Errorf("user %s: %w", user.ID, domainErrors.ErrAccountLocked)
	}
	return user, session, nil
}

// Login completes a credential check the gateway already performed: it
// refuses locked accounts, records the successful login (resetting the
// failure counter) and mints a session. The returned session carries the
// plaintext token, shown to the caller exactly once.
func (s *AuthService) Login(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) (*models.Session, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AccountLocked {
		logErr := s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
			UserID:    &user.ID,
			Action:    models.ActionLockedAccountAccess,
			IPAddress: ipAddress,
			UserAgent: userAgent,
			Success:   false,
			RiskScore: RiskScoreAccountLocked,
		})
		if logErr != nil {
			return nil, logErr
		}
		return nil, fmt.Errorf("user %s: %w", user.ID, domainErrors.ErrAccountLocked)
	}
	if err := s.lockout.TrackSuccessfulLogin(ctx, userID, ipAddress, userAgent); err != nil {
		return nil, err
	}
	return s.CreateSession(ctx, userID, ipAddress, userAgent)
}

// RevokeSession deactivates one session, refusing cross-user revocation when
// expectedUserID is given.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID uuid.UUID, expectedUserID *uuid.UUID) error {
	return s.sessions.Revoke(ctx, sessionID, expectedUserID)
}

// RevokeAllSessions revokes every active session for the user except the one
// excluded.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) (int64, error) {
	return s.sessions.RevokeAll(ctx, userID, exceptSessionID)
}

// ListSessions returns the user's sessions for device-management views.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID, params models.ListSessionsParams) ([]*models.Session, error) {
	return s.sessions.ListSessions(ctx, userID, params)
}

// --- Login tracking and lockout ---

// TrackFailedLogin records a failed login attempt and locks the account at
// the threshold.
func (s *AuthService) TrackFailedLogin(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) error {
	return s.lockout.TrackFailedLogin(ctx, userID, ipAddress, userAgent)
}

// TrackSuccessfulLogin records a successful login and resets the failure
// counter.
func (s *AuthService) TrackSuccessfulLogin(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) error {
	return s.lockout.TrackSuccessfulLogin(ctx, userID, ipAddress, userAgent)
}

// LockAccount locks the user out and revokes all standing sessions.
func (s *AuthService) LockAccount(ctx context.Context, userID uuid.UUID, reason string) error {
	return s.lockout.LockAccount(ctx, userID, reason)
}

// UnlockAccount lifts a lock. Trusted callers only; there is no automatic
// time-based unlock.
func (s *AuthService) UnlockAccount(ctx context.Context, userID uuid.UUID) error {
	return s.lockout.UnlockAccount(ctx, userID)
}

// --- Two-factor authentication ---

// EnableTwoFactor generates and stores a shared TOTP secret for the user and
// returns it. Verifying OTP codes at login time is the caller's concern.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.TwoFactorEnabled {
		return "", domainErrors.Err2FAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	secret := key.Secret()

	if err := s.userRepo.SetTwoFactor(ctx, userID, true, &secret); err != nil {
		return "", err
	}
	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:  &userID,
		Action:  models.ActionTwoFactorEnabled,
		Success: true,
	})
	if err != nil {
		return "", err
	}
	return secret, nil
}

// DisableTwoFactor clears the shared secret. Disabling when not enabled
// surfaces Err2FANotEnabled.
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return domainErrors.Err2FANotEnabled
	}
	if err := s.userRepo.SetTwoFactor(ctx, userID, false, nil); err != nil {
		return err
	}
	return s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:  &userID,
		Action:  models.ActionTwoFactorDisabled,
		Success: true,
	})
}

// --- Verification tokens ---

// IssueVerificationToken creates a single-use token; ttl <= 0 selects the
// configured default.
func (s *AuthService) IssueVerificationToken(ctx context.Context, userID uuid.UUID, tokenType models.VerificationTokenType, ttl time.Duration) (string, error) {
	return s.verification.Issue(ctx, userID, tokenType, ttl)
}

// ConsumeVerificationToken redeems a token at most once, returning the
// owning user ID.
func (s *AuthService) ConsumeVerificationToken(ctx context.Context, token string, tokenType models.VerificationTokenType) (uuid.UUID, error) {
	return s.verification.Consume(ctx, token, tokenType)
}

// --- Roles and permissions ---

// CreateRole registers a new role definition.
func (s *AuthService) CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	return s.roles.CreateRole(ctx, req)
}

// AssignRole grants a role to a user, optionally time-bounded.
func (s *AuthService) AssignRole(ctx context.Context, req models.AssignRoleRequest) error {
	return s.roles.AssignRole(ctx, req)
}

// GetActiveRoles returns the roles currently effective for the user.
func (s *AuthService) GetActiveRoles(ctx context.Context, userID uuid.UUID) ([]*models.Role, error) {
	return s.roles.GetActiveRoles(ctx, userID)
}

// GetRoleAssignments returns the user's grant history, expired edges
// included.
func (s *AuthService) GetRoleAssignments(ctx context.Context, userID uuid.UUID) ([]*models.RoleAssignment, error) {
	return s.roles.ListAssignments(ctx, userID)
}

// HasPermission reports whether the user currently holds the permission.
func (s *AuthService) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	return s.roles.HasPermission(ctx, userID, permission)
}

// --- Risk and audit ---

// ComputeRiskScore returns the advisory 0-100 risk value for the user's
// current activity.
func (s *AuthService) ComputeRiskScore(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) (int, error) {
	return s.risk.Score(ctx, userID, ipAddress, userAgent)
}

// GetSecurityLog returns audit entries newest-first, optionally filtered to
// one user.
func (s *AuthService) GetSecurityLog(ctx context.Context, userID *uuid.UUID, limit int) ([]*models.SecurityEvent, error) {
	return s.securityLog.Query(ctx, userID, limit)
}
