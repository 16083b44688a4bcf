package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/metrics"
)

// Risk scoring weights. The values are carried over unchanged from the
// platform's historical behavior; treat them as tunable constants, not
// derived ones.
const (
	// RiskFailureWeight is added per failed login in the trailing window.
	RiskFailureWeight = 10
	// RiskFailureCap bounds the failure contribution.
	RiskFailureCap = 50
	// RiskNewIPWeight is added when the IP has never appeared in a
	// successful entry for the user.
	RiskNewIPWeight = 25
	// RiskFailureWindow is the trailing window for counting failures.
	RiskFailureWindow = 24 * time.Hour
	// RiskScoreMax clamps the final score.
	RiskScoreMax = 100
)

// RiskService computes a 0-100 heuristic for how suspicious a login/action
// appears. It is a pure function of security log history plus the inputs:
// advisory only, it never blocks an action by itself.
type RiskService struct {
	logRepo repository.SecurityLogRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewRiskService creates a new RiskService.
func NewRiskService(logRepo repository.SecurityLogRepository, logger *zap.Logger) *RiskService {
	return &RiskService{logRepo: logRepo, logger: logger, now: time.Now}
}

// Score computes the risk value for a login/action by the given user from
// the given address.
func (s *RiskService) Score(ctx context.Context, userID uuid.UUID, ipAddress, userAgent *string) (int, error) {
	since := s.now().Add(-RiskFailureWindow)
	failures, err := s.logRepo.CountByUserActionSince(ctx, userID, models.ActionFailedLogin, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent failures: %w", err)
	}

	score := failures * RiskFailureWeight
	if score > RiskFailureCap {
		score = RiskFailureCap
	}

	if ipAddress != nil && *ipAddress != "" {
		seen, err := s.logRepo.HasSuccessfulEventFromIP(ctx, userID, *ipAddress)
		if err != nil {
			return 0, fmt.Errorf("failed to check IP history: %w", err)
		}
		if !seen {
			score += RiskNewIPWeight
		}
	}

	if score > RiskScoreMax {
		score = RiskScoreMax
	}
	metrics.RiskScore.Observe(float64(score))
	return score, nil
}
