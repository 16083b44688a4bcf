package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
)

// DefaultCleanupInterval is how often the janitor sweeps when no interval is
// configured.
const DefaultCleanupInterval = 1 * time.Hour

// JanitorService periodically deletes rows that soft expiry has already made
// invisible: expired sessions and expired verification tokens. Correctness
// never depends on the sweep; it only bounds table growth.
type JanitorService struct {
	sessionRepo repository.SessionRepository
	tokenRepo   repository.VerificationTokenRepository
	logger      *zap.Logger
	interval    time.Duration
}

// NewJanitorService creates a new JanitorService. interval <= 0 selects
// DefaultCleanupInterval.
func NewJanitorService(
	sessionRepo repository.SessionRepository,
	tokenRepo repository.VerificationTokenRepository,
	logger *zap.Logger,
	interval time.Duration,
) *JanitorService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &JanitorService{
		sessionRepo: sessionRepo,
		tokenRepo:   tokenRepo,
		logger:      logger,
		interval:    interval,
	}
}

// Run sweeps on a ticker until ctx is canceled. Sweep failures are logged and
// retried on the next tick.
func (s *JanitorService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *JanitorService) sweep(ctx context.Context) {
	now := time.Now().UTC()

	sessions, err := s.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("Failed to delete expired sessions", zap.Error(err))
	} else if sessions > 0 {
		s.logger.Info("Deleted expired sessions", zap.Int64("count", sessions))
	}

	tokens, err := s.tokenRepo.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("Failed to delete expired verification tokens", zap.Error(err))
	} else if tokens > 0 {
		s.logger.Info("Deleted expired verification tokens", zap.Int64("count", tokens))
	}
}
