package service

import (
	"context"
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

// DefaultVerificationTokenTTL applies when the caller passes no TTL.
const DefaultVerificationTokenTTL = 60 * time.Minute

// VerificationService issues and consumes single-use verification tokens for
// email/phone verification and password resets.
type VerificationService struct {
	tokenRepo   repository.VerificationTokenRepository
	userRepo    repository.UserRepository
	securityLog *SecurityLogService
	logger      *zap.Logger
	defaultTTL  time.Duration
	now         func() time.Time
}

// NewVerificationService creates a new VerificationService. defaultTTL <= 0
// selects DefaultVerificationTokenTTL.
func NewVerificationService(
	tokenRepo repository.VerificationTokenRepository,
	userRepo repository.UserRepository,
	securityLog *SecurityLogService,
	logger *zap.Logger,
	defaultTTL time.Duration,
) *VerificationService {
	if defaultTTL <= 0 {
		defaultTTL = DefaultVerificationTokenTTL
	}
	return &VerificationService{
		tokenRepo:   tokenRepo,
		userRepo:    userRepo,
		securityLog: securityLog,
		logger:      logger,
		defaultTTL:  defaultTTL,
		now:         time.Now,
	}
}

// Issue creates a verification token for the user and returns the plaintext
// secret, shown to the caller exactly once. ttl <= 0 selects the default.
func (s *VerificationService) Issue(ctx context.Context, userID uuid.UUID, tokenType models.VerificationTokenType, ttl time.Duration) (string, error) {
	if !tokenType.IsValid() {
		return "", fmt.Errorf("unknown verification token type %q: %w", tokenType, domainErrors.ErrTokenInvalid)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	token, err := random.GenerateOpaqueToken(random.VerificationTokenBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}

	record := &models.VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: random.HashToken(token),
		Type:      tokenType,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return "", err
	}

	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:  &userID,
		Action:  models.ActionVerificationTokenCreated,
		Details: marshalDetails(models.TokenEventDetails{TokenType: string(tokenType)}),
		Success: true,
	})
	if err != nil {
		return "", err
	}

	metrics.VerificationTokensTotal.WithLabelValues("issue", string(tokenType)).Inc()
	return token, nil
}

// Consume redeems a token of the given type at most once and returns the
// owning user ID. For email and phone verification the corresponding
// verified flag is flipped on the user record. Unknown, expired and
// already-used tokens all return ErrTokenNotFound: absence is the expected
// outcome there, not a failure.
func (s *VerificationService) Consume(ctx context.Context, token string, tokenType models.VerificationTokenType) (uuid.UUID, error) {
	record, err := s.tokenRepo.Consume(ctx, random.HashToken(token), tokenType, s.now())
	if err != nil {
		return uuid.Nil, err
	}

	switch tokenType {
	case models.TokenTypeEmailVerification:
		if err := s.userRepo.SetEmailVerified(ctx, record.UserID); err != nil {
			return uuid.Nil, err
		}
	case models.TokenTypePhoneVerification:
		if err := s.userRepo.SetPhoneVerified(ctx, record.UserID); err != nil {
			return uuid.Nil, err
		}
	}

	err = s.securityLog.Record(ctx, models.RecordSecurityEventRequest{
		UserID:  &record.UserID,
		Action:  models.ActionVerificationTokenUsed,
		Details: marshalDetails(models.TokenEventDetails{TokenType: string(tokenType)}),
		Success: true,
	})
	if err != nil {
		return uuid.Nil, err
	}

	metrics.VerificationTokensTotal.WithLabelValues("consume", string(tokenType)).Inc()
	return record.UserID, nil
}
