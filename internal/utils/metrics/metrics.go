package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttemptsTotal counts tracked logins by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_login_attempts_total",
		Help: "The total number of tracked login attempts by outcome",
	}, []string{"outcome"})

	// AccountLockoutsTotal counts account lock transitions.
	AccountLockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_account_lockouts_total",
		Help: "The total number of accounts locked",
	})

	// SessionsCreatedTotal counts sessions issued.
	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_sessions_created_total",
		Help: "The total number of sessions created",
	})

	// SessionsRevokedTotal counts sessions revoked, by cause.
	SessionsRevokedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_sessions_revoked_total",
		Help: "The total number of sessions revoked by cause",
	}, []string{"cause"})

	// SessionValidationsTotal counts validate calls by result.
	SessionValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_session_validations_total",
		Help: "The total number of session validations by result",
	}, []string{"result"})

	// VerificationTokensTotal counts token issue/consume operations.
	VerificationTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_verification_tokens_total",
		Help: "The total number of verification token operations",
	}, []string{"operation", "type"})

	// PermissionChecksTotal counts permission checks by result.
	PermissionChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_permission_checks_total",
		Help: "The total number of permission checks by result",
	}, []string{"result"})

	// RiskScore observes computed risk scores.
	RiskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_service_risk_score",
		Help:    "Distribution of computed risk scores",
		Buckets: []float64{0, 10, 25, 50, 75, 100},
	})

	// SecurityEventsTotal counts appended security log entries by action.
	SecurityEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_security_events_total",
		Help: "The total number of security log entries by action",
	}, []string{"action"})

	// DatabaseOperationDuration observes persistence call latency.
	DatabaseOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_service_database_operation_duration_seconds",
		Help:    "The database operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
