package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
)

func newRiskFixture(t *testing.T) (*RiskService, *mockSecurityLogRepo, time.Time) {
	t.Helper()
	logRepo := new(mockSecurityLogRepo)
	svc := NewRiskService(logRepo, zap.NewNop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, logRepo, now
}

func TestRiskScoreFailuresOnly(t *testing.T) {
	svc, logRepo, now := newRiskFixture(t)
	userID := uuid.New()
	since := now.Add(-RiskFailureWindow)

	logRepo.On("CountByUserActionSince", context.Background(), userID, models.ActionFailedLogin, since).
		Return(3, nil).Once()

	score, err := svc.Score(context.Background(), userID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, score)
}

func TestRiskScoreFailureContributionCapped(t *testing.T) {
	svc, logRepo, now := newRiskFixture(t)
	userID := uuid.New()
	since := now.Add(-RiskFailureWindow)

	logRepo.On("CountByUserActionSince", context.Background(), userID, models.ActionFailedLogin, since).
		Return(20, nil).Once()

	score, err := svc.Score(context.Background(), userID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, RiskFailureCap, score)
}

func TestRiskScoreNewIPAddsWeight(t *testing.T) {
	svc, logRepo, now := newRiskFixture(t)
	userID := uuid.New()
	ip := "198.51.100.9"
	since := now.Add(-RiskFailureWindow)

	logRepo.On("CountByUserActionSince", context.Background(), userID, models.ActionFailedLogin, since).
		Return(0, nil).Once()
	logRepo.On("HasSuccessfulEventFromIP", context.Background(), userID, ip).Return(false, nil).Once()

	score, err := svc.Score(context.Background(), userID, &ip, nil)
	require.NoError(t, err)
	assert.Equal(t, RiskNewIPWeight, score)
}

func TestRiskScoreKnownIPAddsNothing(t *testing.T) {
	svc, logRepo, now := newRiskFixture(t)
	userID := uuid.New()
	ip := "198.51.100.9"
	since := now.Add(-RiskFailureWindow)

	logRepo.On("CountByUserActionSince", context.Background(), userID, models.ActionFailedLogin, since).
		Return(1, nil).Once()
	logRepo.On("HasSuccessfulEventFromIP", context.Background(), userID, ip).Return(true, nil).Once()

	score, err := svc.Score(context.Background(), userID, &ip, nil)
	require.NoError(t, err)
	assert.Equal(t, RiskFailureWeight, score)
}

func TestRiskScoreClampedToMax(t *testing.T) {
	svc, logRepo, now := newRiskFixture(t)
	userID := uuid.New()
	ip := "198.51.100.9"
	since := now.Add(-RiskFailureWindow)

	logRepo.On("CountByUserActionSince", context.Background(), userID, models.ActionFailedLogin, since).
		Return(100, nil).Once()
	logRepo.On("HasSuccessfulEventFromIP", context.Background(), userID, ip).Return(false, nil).Once()

	score, err := svc.Score(context.Background(), userID, &ip, nil)
	require.NoError(t, err)
	assert.Equal(t, RiskFailureCap+RiskNewIPWeight, score)
	assert.LessOrEqual(t, score, RiskScoreMax)
}

func TestRiskScoreEmptyIPSkipsHistoryCheck(t *testing.T) {
	svc, logRepo, now := newRiskFixture(t)
	userID := uuid.New()
	empty := ""
	since := now.Add(-RiskFailureWindow)

	logRepo.On("CountByUserActionSince", context.Background(), userID, models.ActionFailedLogin, since).
		Return(0, nil).Once()

	score, err := svc.Score(context.Background(), userID, &empty, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	logRepo.AssertNotCalled(t, "HasSuccessfulEventFromIP", context.Background(), userID, empty)
}
