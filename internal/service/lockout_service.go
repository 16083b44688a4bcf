package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/metrics"
)

// Lockout constants, carried over unchanged from the platform's historical
// behavior. Tunable, not derived.
const (
	// DefaultLockoutThreshold locks the account at this many consecutive
	// failed logins.
	DefaultLockoutThreshold = 5
	// RiskScoreFailedLogin is stamped on every failed_login entry.
	RiskScoreFailedLogin = 30
	// RiskScoreAccountLocked is stamped on account_locked entries.
	RiskScoreAccountLocked = 100

	// LockReasonTooManyFailures is the reason recorded on threshold locks.
	LockReasonTooManyFailures = "too many failed login attempts"
)

// LockoutService tracks login outcomes and flips the account's locked state
// at the failure threshold. There is no time-based unlock: locking is
// reversed only by an explicit trusted UnlockAccount call.
//
// The counter increment, the log write and the lock trigger run in that
// sequence without a distributed transaction. The counter is authoritative
// for lock decisions; because the trigger fires at counter >= threshold, a
// crash between steps self-heals on the next failed login.
type LockoutService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	securityLog *SecurityLogService
	logger      *zap.Logger
	threshold   int
	now         func() time.Time
}

// NewLockoutService creates a new LockoutService. threshold <= 0 selects
// DefaultLockoutThreshold.
func NewLockoutService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	securityLog *SecurityLogService,
	logger *zap.Logger,
	threshold int,
) *LockoutService {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	return &LockoutService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		securityLog: securityLog,
		logger:      logger,
		threshold:   threshold,
		now:         time.Now,
	}
}

// TrackFailedLogin increments the failure counter atomically, records the
// failure in the security log, and locks the account once the post-increment
// count reaches the threshold.
func (s *LockoutService) TrackFailedLogin(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) error {
	attempts, err := s.userRepo.IncrementFailedLoginAttempts(ctx, userID, s.now())
	if err != nil {
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()

	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:    &userID,
		Action:    models.ActionFailedLogin,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   false,
		RiskScore: RiskScoreFailedLogin,
	})
	if err != nil {
		// The counter already advanced and remains authoritative; the lock
		// trigger catches up on the next failure.
		return err
	}

	if attempts >= s.threshold {
		return s.LockAccount(ctx, userID, LockReasonTooManyFailures)
	}
	return nil
}

// TrackSuccessfulLogin stamps last_login_at, bumps login_count and resets the
// failure counter. It does not clear an existing lock: a lock survives until
// explicitly lifted.
func (s *LockoutService) TrackSuccessfulLogin(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) error {
	if err := s.userRepo.RecordSuccessfulLogin(ctx, userID, s.now()); err != nil {
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:    &userID,
		Action:    models.ActionSuccessfulLogin,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
		RiskScore: 0,
	})
}

// LockAccount sets the locked state, synchronously revokes every active
// session for the user (a lock invalidates all standing access with no grace
// period), and records the transition. Locking an already-locked account is
// an idempotent no-op that still succeeds.
func (s *LockoutService) LockAccount(ctx context.Context, userID uuid.UUID, reason string) error {
	if err := s.userRepo.SetLock(ctx, userID, true, &reason); err != nil {
		return err
	}
	revoked, err := s.sessionRepo.RevokeAllForUser(ctx, userID, nil)
	if err != nil {
		return err
	}
	s.logger.Warn("Account locked",
		zap.String("user_id", userID.String()),
		zap.String("reason", reason),
		zap.Int64("sessions_revoked", revoked),
	)
	metrics.AccountLockoutsTotal.Inc()
	metrics.SessionsRevokedTotal.WithLabelValues("lock").Add(float64(revoked))

	return s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:    &userID,
		Action:    models.ActionAccountLocked,
		Details:   marshalDetails(models.LockEventDetails{Reason: reason, SessionsRevoked: int(revoked)}),
		Success:   true,
		RiskScore: RiskScoreAccountLocked,
	})
}

// UnlockAccount clears the lock fields and resets the failure counter.
// Unlocking an already-unlocked account succeeds with the same end state.
func (s *LockoutService) UnlockAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.SetLock(ctx, userID, false, nil); err != nil {
		return err
	}
	s.logger.Info("Account unlocked", zap.String("user_id", userID.String()))

	return s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:    &userID,
		Action:    models.ActionAccountUnlocked,
		Success:   true,
		RiskScore: 0,
	})
}
