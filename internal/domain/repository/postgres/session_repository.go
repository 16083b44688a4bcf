package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/metrics"
)

// observeOp records the latency of one persistence call.
func observeOp(operation string, start time.Time) {
	metrics.DatabaseOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

const sessionColumns = `id, user_id, token_hash, device_info, ip_address, user_agent,
		created_at, last_accessed_at, expires_at, is_active`

// SessionRepositoryPostgres implements repository.SessionRepository for
// PostgreSQL.
type SessionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSessionRepositoryPostgres creates a new instance of
// SessionRepositoryPostgres.
func NewSessionRepositoryPostgres(pool *pgxpool.Pool) *SessionRepositoryPostgres {
	return &SessionRepositoryPostgres{pool: pool}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.DeviceInfo, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.LastAccessedAt, &s.ExpiresAt, &s.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create persists a new session. The row is fully written before the token is
// ever returned to a caller, so a token can never reference a half-created
// session.
func (r *SessionRepositoryPostgres) Create(ctx context.Context, session *models.Session) error {
	defer observeOp("session_create", time.Now())
	query := `
		INSERT INTO sessions (id, user_id, token_hash, device_info, ip_address, user_agent,
			created_at, last_accessed_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.LastAccessedAt.IsZero() {
		session.LastAccessedAt = session.CreatedAt
	}
	_, err := r.pool.Exec(ctx, query,
		session.ID, session.UserID, session.TokenHash, session.DeviceInfo,
		session.IPAddress, session.UserAgent, session.CreatedAt,
		session.LastAccessedAt, session.ExpiresAt, session.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID retrieves a session by its unique ID.
func (r *SessionRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}
	return s, nil
}

// FindByTokenHash retrieves a session by the hash of its bearer token.
// Validity (is_active, expiry) is the caller's concern; this is a plain
// lookup so every validation re-reads current state.
func (r *SessionRepositoryPostgres) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	defer observeOp("session_find_by_token", time.Now())
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = $1`
	s, err := scanSession(r.pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}
	return s, nil
}

// TouchLastAccessed bumps last_accessed_at. Concurrent touches for the same
// session race last-write-wins, which is acceptable for advisory telemetry.
func (r *SessionRepositoryPostgres) TouchLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE sessions SET last_accessed_at = $1 WHERE id = $2`
	if _, err := r.pool.Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Revoke sets is_active = false. Revoking an already-revoked session affects
// the row again with the same value and still succeeds, so the operation is
// idempotent; only a missing row is an error.
func (r *SessionRepositoryPostgres) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// RevokeAllForUser revokes every active session for a user, optionally
// excluding one (used for "log out all other devices"). Returns the number of
// sessions actually revoked.
func (r *SessionRepositoryPostgres) RevokeAllForUser(ctx context.Context, userID uuid.UUID, exceptID *uuid.UUID) (int64, error) {
	query := `UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`
	args := []interface{}{userID}
	if exceptID != nil {
		query += ` AND id != $2`
		args = append(args, *exceptID)
	}
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListByUser retrieves sessions for a user, newest activity first.
func (r *SessionRepositoryPostgres) ListByUser(ctx context.Context, userID uuid.UUID, params models.ListSessionsParams) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	args := []interface{}{userID}
	argCount := 2
	if params.ActiveOnly {
		query += fmt.Sprintf(" AND is_active = TRUE AND expires_at > $%d", argCount)
		args = append(args, time.Now())
		argCount++
	}
	query += " ORDER BY last_accessed_at DESC"
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, params.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, errScan := scanSession(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", errScan)
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// CountActiveByUser counts sessions that are valid as of now.
func (r *SessionRepositoryPostgres) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return count, nil
}

// DeleteExpired removes sessions whose expiry is older than the cutoff.
// Intended for a periodic reaper; expired rows are otherwise retained and
// filtered at read time.
func (r *SessionRepositoryPostgres) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`
	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.SessionRepository = (*SessionRepositoryPostgres)(nil)
