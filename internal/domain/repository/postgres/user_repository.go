package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
)

const userColumns = `id, username, email, account_locked, lock_reason, failed_login_attempts,
		last_failed_login_at, last_login_at, login_count, two_factor_enabled, two_factor_secret,
		email_verified, phone_verified, created_at, updated_at`

// UserRepositoryPostgres implements repository.UserRepository for PostgreSQL.
type UserRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewUserRepositoryPostgres creates a new instance of UserRepositoryPostgres.
func NewUserRepositoryPostgres(pool *pgxpool.Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.AccountLocked, &u.LockReason, &u.FailedLoginAttempts,
		&u.LastFailedLoginAt, &u.LastLoginAt, &u.LoginCount, &u.TwoFactorEnabled, &u.TwoFactorSecret,
		&u.EmailVerified, &u.PhoneVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Upsert creates the user record on first authentication, or refreshes the
// identity fields if it already exists. Security columns are left untouched
// on conflict.
func (r *UserRepositoryPostgres) Upsert(ctx context.Context, req models.UpsertUserRequest) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, req.ID, req.Username, req.Email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on username/email
			return nil, fmt.Errorf("conflicting identity for user %s: %w", req.ID, domainErrors.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by ID.
func (r *UserRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return u, nil
}

// IncrementFailedLoginAttempts bumps the failure counter atomically in the
// database and returns the post-increment value. The RETURNING clause is what
// lets the lockout controller apply the threshold without a read-modify-write
// race.
func (r *UserRepositoryPostgres) IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID, at time.Time) (int, error) {
	defer observeOp("user_increment_failures", time.Now())
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, last_failed_login_at = $1
		WHERE id = $2
		RETURNING failed_login_attempts
	`
	var attempts int
	err := r.pool.QueryRow(ctx, query, at, id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to increment failed login attempts: %w", err)
	}
	return attempts, nil
}

// RecordSuccessfulLogin stamps last_login_at, bumps login_count and resets
// the failure counter in a single statement.
func (r *UserRepositoryPostgres) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET last_login_at = $1, login_count = login_count + 1, failed_login_attempts = 0
		WHERE id = $2
	`
	result, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to record successful login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// SetLock flips the locked state. When unlocking, the failure counter is
// reset as well so the next failure starts a fresh window.
func (r *UserRepositoryPostgres) SetLock(ctx context.Context, id uuid.UUID, locked bool, reason *string) error {
	var query string
	if locked {
		query = `UPDATE users SET account_locked = TRUE, lock_reason = $1 WHERE id = $2`
	} else {
		query = `UPDATE users SET account_locked = FALSE, lock_reason = $1, failed_login_attempts = 0 WHERE id = $2`
	}
	result, err := r.pool.Exec(ctx, query, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update lock state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// SetTwoFactor stores or clears the shared 2FA secret.
func (r *UserRepositoryPostgres) SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, secret *string) error {
	query := `UPDATE users SET two_factor_enabled = $1, two_factor_secret = $2 WHERE id = $3`
	result, err := r.pool.Exec(ctx, query, enabled, secret, id)
	if err != nil {
		return fmt.Errorf("failed to update two-factor state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// SetEmailVerified marks the user's email as verified.
func (r *UserRepositoryPostgres) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.setVerified(ctx, id, "email_verified")
}

// SetPhoneVerified marks the user's phone as verified.
func (r *UserRepositoryPostgres) SetPhoneVerified(ctx context.Context, id uuid.UUID) error {
	return r.setVerified(ctx, id, "phone_verified")
}

func (r *UserRepositoryPostgres) setVerified(ctx context.Context, id uuid.UUID, column string) error {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(`UPDATE users SET %s = TRUE WHERE id = $1`, column)
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepositoryPostgres)(nil)
