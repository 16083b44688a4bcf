package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository"
)

// VerificationTokenRepositoryPostgres implements
// repository.VerificationTokenRepository.
type VerificationTokenRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewVerificationTokenRepositoryPostgres creates a new instance.
func NewVerificationTokenRepositoryPostgres(pool *pgxpool.Pool) *VerificationTokenRepositoryPostgres {
	return &VerificationTokenRepositoryPostgres{pool: pool}
}

// Create persists a new verification token.
func (r *VerificationTokenRepositoryPostgres) Create(ctx context.Context, token *models.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (id, user_id, token_hash, type, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.Type, token.ExpiresAt, token.UsedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation on user_id
			return fmt.Errorf("user %s not found for verification token: %w", token.UserID, domainErrors.ErrUserNotFound)
		}
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

// Consume marks an unused, unexpired token of the given type as used and
// returns it. The WHERE clause on used_at IS NULL makes this an atomic
// check-and-set: of any number of concurrent calls with the same token,
// exactly one can match the row, so a token is consumable at most once.
func (r *VerificationTokenRepositoryPostgres) Consume(ctx context.Context, tokenHash string, tokenType models.VerificationTokenType, usedAt time.Time) (*models.VerificationToken, error) {
	query := `
		UPDATE verification_tokens
		SET used_at = $1
		WHERE token_hash = $2 AND type = $3 AND used_at IS NULL AND expires_at > $1
		RETURNING id, user_id, token_hash, type, expires_at, used_at, created_at
	`
	t := &models.VerificationToken{}
	err := r.pool.QueryRow(ctx, query, usedAt, tokenHash, tokenType).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.Type, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown, expired or already used: indistinguishable by design,
			// and an expected outcome rather than a failure.
			return nil, domainErrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}
	return t, nil
}

// DeleteExpired removes tokens whose expiry is older than the cutoff.
// Intended for a periodic reaper.
func (r *VerificationTokenRepositoryPostgres) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM verification_tokens WHERE expires_at < $1`
	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.VerificationTokenRepository = (*VerificationTokenRepositoryPostgres)(nil)
