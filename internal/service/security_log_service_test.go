package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/events/kafka"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSecurityEvent(ctx context.Context, event *models.SecurityEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestRecordDatabaseWriteIsAuthoritative(t *testing.T) {
	logRepo := new(mockSecurityLogRepo)
	svc := NewSecurityLogService(logRepo, kafka.NopPublisher{}, zap.NewNop())

	logRepo.On("Create", context.Background(), mock.Anything).Return(errors.New("disk full")).Once()

	err := svc.Record(context.Background(), models.RecordSecurityEventRequest{Action: models.ActionFailedLogin})

	assert.ErrorIs(t, err, domainErrors.ErrAuditWriteFailed)
}

func TestRecordKafkaFailureIsBestEffort(t *testing.T) {
	logRepo := new(mockSecurityLogRepo)
	publisher := new(mockPublisher)
	svc := NewSecurityLogService(logRepo, publisher, zap.NewNop())
	userID := uuid.New()

	logRepo.On("Create", context.Background(), mock.Anything).Return(nil).Once()
	publisher.On("PublishSecurityEvent", context.Background(), mock.Anything).
		Return(errors.New("broker unreachable")).Once()

	err := svc.Record(context.Background(), models.RecordSecurityEventRequest{
		UserID: &userID,
		Action: models.ActionSessionCreated,
	})

	require.NoError(t, err, "Kafka fan-out must never fail the operation")
	publisher.AssertExpectations(t)
}

func TestQueryDefaultsLimit(t *testing.T) {
	logRepo := new(mockSecurityLogRepo)
	svc := NewSecurityLogService(logRepo, kafka.NopPublisher{}, zap.NewNop())

	logRepo.On("List", context.Background(), (*uuid.UUID)(nil), DefaultSecurityLogLimit).
		Return([]*models.SecurityEvent{}, nil).Once()

	_, err := svc.Query(context.Background(), nil, 0)

	require.NoError(t, err)
	logRepo.AssertExpectations(t)
}
