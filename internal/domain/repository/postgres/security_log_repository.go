package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
)

// SecurityLogRepositoryPostgres implements repository.SecurityLogRepository.
// The table is append-only: this type deliberately exposes no update or
// delete statements.
type SecurityLogRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSecurityLogRepositoryPostgres creates a new instance of
// SecurityLogRepositoryPostgres.
func NewSecurityLogRepositoryPostgres(pool *pgxpool.Pool) *SecurityLogRepositoryPostgres {
	return &SecurityLogRepositoryPostgres{pool: pool}
}

// Create appends one immutable entry and backfills the generated ID and
// timestamp.
func (r *SecurityLogRepositoryPostgres) Create(ctx context.Context, event *models.SecurityEvent) error {
	defer observeOp("security_log_create", time.Now())
	query := `
		INSERT INTO security_log (user_id, action, details, ip_address, user_agent, success, risk_score, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		event.UserID, event.Action, event.Details, event.IPAddress,
		event.UserAgent, event.Success, event.RiskScore, event.Location,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append security log entry: %w", err)
	}
	return nil
}

// List returns entries newest-first, optionally filtered to one user.
func (r *SecurityLogRepositoryPostgres) List(ctx context.Context, userID *uuid.UUID, limit int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, user_id, action, details, ip_address, user_agent, success, risk_score, location, created_at
		FROM security_log
	`
	args := []interface{}{}
	argCount := 1
	if userID != nil {
		query += fmt.Sprintf(" WHERE user_id = $%d", argCount)
		args = append(args, *userID)
		argCount++
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list security log entries: %w", err)
	}
	defer rows.Close()

	var events []*models.SecurityEvent
	for rows.Next() {
		e := &models.SecurityEvent{}
		errScan := rows.Scan(
			&e.ID, &e.UserID, &e.Action, &e.Details, &e.IPAddress,
			&e.UserAgent, &e.Success, &e.RiskScore, &e.Location, &e.CreatedAt,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan security log row: %w", errScan)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security log rows: %w", err)
	}
	return events, nil
}

// CountByUserActionSince counts entries of one action for a user within a
// trailing time window.
func (r *SecurityLogRepositoryPostgres) CountByUserActionSince(ctx context.Context, userID uuid.UUID, action models.SecurityAction, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM security_log WHERE user_id = $1 AND action = $2 AND created_at >= $3`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID, action, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count security log entries: %w", err)
	}
	return count, nil
}

// HasSuccessfulEventFromIP reports whether the IP has ever appeared in a
// successful entry for the user.
func (r *SecurityLogRepositoryPostgres) HasSuccessfulEventFromIP(ctx context.Context, userID uuid.UUID, ipAddress string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM security_log WHERE user_id = $1 AND ip_address = $2 AND success = TRUE
	)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, ipAddress).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check IP history: %w", err)
	}
	return exists, nil
}

var _ repository.SecurityLogRepository = (*SecurityLogRepositoryPostgres)(nil)
