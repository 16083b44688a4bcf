package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/metrics"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/random"
)

// DefaultSessionTTL is the session lifetime applied when the config carries
// no override.
const DefaultSessionTTL = 7 * 24 * time.Hour

// riskScoreCrossUserRevoke marks attempts to revoke another user's session.
const riskScoreCrossUserRevoke = 75

// SessionService manages the session lifecycle: issuance, validation,
// revocation. Tokens are opaque 256-bit secrets; only their hash is stored.
type SessionService struct {
	sessionRepo repository.SessionRepository
	securityLog *SecurityLogService
	logger      *zap.Logger
	ttl         time.Duration
	now         func() time.Time
}

// NewSessionService creates a new SessionService. ttl <= 0 selects
// DefaultSessionTTL.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	securityLog *SecurityLogService,
	logger *zap.Logger,
	ttl time.Duration,
) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		securityLog: securityLog,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
	}
}

func marshalDetails(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// Create issues a new session for the user and returns it with the plaintext
// token populated. The row is fully persisted before the token is returned;
// if the audit entry cannot be written the session is rolled back and the
// operation fails.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, deviceInfo models.DeviceInfo, ipAddress, userAgent *string) (*models.Session, error) {
	token, err := random.GenerateOpaqueToken(random.SessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		ID:             uuid.New(),
		UserID:         userID,
		TokenHash:      random.HashToken(token),
		DeviceInfo:     deviceInfo,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.ttl),
		IsActive:       true,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.logger.Error("Failed to create session", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}

	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:    &userID,
		Action:    models.ActionSessionCreated,
		Details:   marshalDetails(models.SessionEventDetails{SessionID: session.ID.String(), Device: deviceInfo}),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})
	if err != nil {
		// Fail closed: a session must not stand without its audit record.
		if revokeErr := s.sessionRepo.Revoke(ctx, session.ID); revokeErr != nil {
			s.logger.Error("Failed to roll back unaudited session",
				zap.String("session_id", session.ID.String()), zap.Error(revokeErr))
		}
		return nil, err
	}

	metrics.SessionsCreatedTotal.Inc()
	session.Token = token
	return session, nil
}

// Validate looks up a session by its bearer token and returns it only while
// it is active and unexpired. State is re-read on every call, never cached,
// so a revocation or lock takes effect immediately. The last-accessed bump is
// advisory and races last-write-wins under concurrent requests.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.sessionRepo.FindByTokenHash(ctx, random.HashToken(token))
	if err != nil {
		if domainErrors.IsNotFound(err) {
			metrics.SessionValidationsTotal.WithLabelValues("not_found").Inc()
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, err
	}

	now := s.now()
	if !session.IsActive {
		metrics.SessionValidationsTotal.WithLabelValues("revoked").Inc()
		return nil, domainErrors.ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		metrics.SessionValidationsTotal.WithLabelValues("expired").Inc()
		return nil, domainErrors.ErrSessionExpired
	}

	if err := s.sessionRepo.TouchLastAccessed(ctx, session.ID, now); err != nil {
		s.logger.Warn("Failed to bump session last_accessed_at",
			zap.String("session_id", session.ID.String()), zap.Error(err))
	} else {
		session.LastAccessedAt = now
	}
	metrics.SessionValidationsTotal.WithLabelValues("valid").Inc()
	return session, nil
}

// Revoke deactivates one session. When expectedUserID is given the operation
// refuses to revoke a session belonging to a different user; the ownership
// check lives at this layer, not only above it. Revoking an already-revoked
// session succeeds as a no-op.
func (s *SessionService) Revoke(ctx context.Context, sessionID uuid.UUID, expectedUserID *uuid.UUID) error {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if expectedUserID != nil && session.UserID != *expectedUserID {
		logErr := s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
			UserID:    expectedUserID,
			Action:    models.ActionSessionRevoked,
			Details:   marshalDetails(models.SessionEventDetails{SessionID: sessionID.String()}),
			Success:   false,
			RiskScore: riskScoreCrossUserRevoke,
		})
		if logErr != nil {
			return logErr
		}
		return fmt.Errorf("session %s does not belong to user %s: %w",
			sessionID, expectedUserID, domainErrors.ErrForbidden)
	}

	if err := s.sessionRepo.Revoke(ctx, sessionID); err != nil {
		return err
	}
	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:  &session.UserID,
		Action:  models.ActionSessionRevoked,
		Details: marshalDetails(models.SessionEventDetails{SessionID: sessionID.String()}),
		Success: true,
	})
	if err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("explicit").Inc()
	return nil
}

// RevokeAll revokes every active session for the user except the one
// excluded, logging a single entry carrying the count revoked.
func (s *SessionService) RevokeAll(ctx context.Context, userID uuid.UUID, exceptID *uuid.UUID) (int64, error) {
	revoked, err := s.sessionRepo.RevokeAllForUser(ctx, userID, exceptID)
	if err != nil {
		return 0, err
	}

	var except *string
	if exceptID != nil {
		v := exceptID.String()
		except = &v
	}
	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:  &userID,
		Action:  models.ActionAllSessionsRevoked,
		Details: marshalDetails(models.RevokeAllDetails{Revoked: int(revoked), ExceptID: except}),
		Success: true,
	})
	if err != nil {
		return revoked, err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("bulk").Add(float64(revoked))
	return revoked, nil
}

// ListSessions returns the user's sessions, newest activity first.
func (s *SessionService) ListSessions(ctx context.Context, userID uuid.UUID, params models.ListSessionsParams) ([]*models.Session, error) {
	return s.sessionRepo.ListByUser(ctx, userID, params)
}

// CountActive returns the number of currently valid sessions for the user.
func (s *SessionService) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.sessionRepo.CountActiveByUser(ctx, userID, s.now())
}
