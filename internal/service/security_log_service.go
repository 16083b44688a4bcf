package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/events/kafka"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/metrics"
)

// DefaultSecurityLogLimit bounds Query results when the caller passes no
// limit.
const DefaultSecurityLogLimit = 100

// SecurityLogService appends to and reads the append-only security log.
// Every security-relevant state transition in the service layer funnels
// through Record; if the underlying write fails the caller's operation must
// fail too, so no unaudited state change can stand.
type SecurityLogService struct {
	logRepo   repository.SecurityLogRepository
	publisher kafka.SecurityEventPublisher
	logger    *zap.Logger
}

// NewSecurityLogService creates a new SecurityLogService.
func NewSecurityLogService(
	logRepo repository.SecurityLogRepository,
	publisher kafka.SecurityEventPublisher,
	logger *zap.Logger,
) *SecurityLogService {
	return &SecurityLogService{
		logRepo:   logRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Record appends one immutable entry. The database write is authoritative;
// the Kafka publication is best-effort fan-out and its failure is only
// logged.
func (s *SecurityLogService) Record(ctx context.Context, req models.RecordSecurityEventRequest) error {
	event := &models.SecurityEvent{
		UserID:    req.UserID,
		Action:    req.Action,
		Details:   req.Details,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Success:   req.Success,
		RiskScore: req.RiskScore,
		Location:  req.Location,
	}
	if err := s.logRepo.Create(ctx, event); err != nil {
		s.logger.Error("Failed to append security log entry",
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domainErrors.ErrAuditWriteFailed, err)
	}
	metrics.SecurityEventsTotal.WithLabelValues(string(req.Action)).Inc()

	if err := s.publisher.PublishSecurityEvent(ctx, event); err != nil {
		// Already logged by the producer; the DB row is the record of truth.
		s.logger.Warn("Security event not published to Kafka",
			zap.String("action", string(req.Action)))
	}
	return nil
}

// Query returns log entries newest-first, optionally filtered to one user.
func (s *SecurityLogService) Query(ctx context.Context, userID *uuid.UUID, limit int) ([]*models.SecurityEvent, error) {
	if limit <= 0 {
		limit = DefaultSecurityLogLimit
	}
	entries, err := s.logRepo.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query security log: %w", err)
	}
	return entries, nil
}
