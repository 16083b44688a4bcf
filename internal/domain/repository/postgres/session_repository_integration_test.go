package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/arena-gg/esports-platform/services/auth-service/internal/domain/errors"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/random"
)

// Integration tests run against a real database named by
// AUTH_TEST_DATABASE_DSN; testPool brings the schema up to date before
// handing out a pool. Without the variable they are skipped.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("AUTH_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("AUTH_TEST_DATABASE_DSN not set, skipping integration test")
	}
	m, err := migrate.New("file://../../../../migrations", dsn)
	require.NoError(t, err)
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createTestUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool) *models.User {
	t.Helper()
	repo := NewUserRepositoryPostgres(pool)
	suffix := uuid.NewString()[:8]
	user, err := repo.Upsert(ctx, models.UpsertUserRequest{
		ID:       uuid.New(),
		Username: fmt.Sprintf("itest_%s", suffix),
		Email:    fmt.Sprintf("itest_%s@example.com", suffix),
	})
	require.NoError(t, err)
	return user
}

func TestSessionRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	repo := NewSessionRepositoryPostgres(pool)
	user := createTestUser(ctx, t, pool)

	ip := "127.0.0.1"
	session := &models.Session{
		ID:             uuid.New(),
		UserID:         user.ID,
		TokenHash:      random.HashToken(uuid.NewString()),
		DeviceInfo:     models.DeviceInfo{Browser: "Chrome", OS: "Linux"},
		IPAddress:      &ip,
		CreatedAt:      time.Now().UTC(),
		LastAccessedAt: time.Now().UTC(),
		ExpiresAt:      time.Now().UTC().Add(24 * time.Hour),
		IsActive:       true,
	}
	require.NoError(t, repo.Create(ctx, session))

	found, err := repo.FindByTokenHash(ctx, session.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)
	assert.Equal(t, "Chrome", found.DeviceInfo.Browser)
	assert.True(t, found.IsActive)
	assert.WithinDuration(t, session.ExpiresAt, found.ExpiresAt, time.Second)
}

func TestSessionRepositoryRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	repo := NewSessionRepositoryPostgres(pool)
	user := createTestUser(ctx, t, pool)

	session := &models.Session{
		ID:             uuid.New(),
		UserID:         user.ID,
		TokenHash:      random.HashToken(uuid.NewString()),
		CreatedAt:      time.Now().UTC(),
		LastAccessedAt: time.Now().UTC(),
		ExpiresAt:      time.Now().UTC().Add(time.Hour),
		IsActive:       true,
	}
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.Revoke(ctx, session.ID))
	require.NoError(t, repo.Revoke(ctx, session.ID))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestSessionRepositoryFindUnknownHash(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	repo := NewSessionRepositoryPostgres(pool)

	_, err := repo.FindByTokenHash(ctx, random.HashToken("never-issued"))
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestVerificationTokenConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	repo := NewVerificationTokenRepositoryPostgres(pool)
	user := createTestUser(ctx, t, pool)

	hash := random.HashToken(uuid.NewString())
	token := &models.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hash,
		Type:      models.TokenTypeEmailVerification,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, token))

	first, err := repo.Consume(ctx, hash, models.TokenTypeEmailVerification, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, user.ID, first.UserID)
	assert.NotNil(t, first.UsedAt)

	_, err = repo.Consume(ctx, hash, models.TokenTypeEmailVerification, time.Now().UTC())
	assert.ErrorIs(t, err, domainErrors.ErrTokenNotFound)
}

func TestVerificationTokenConsumeExpired(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	repo := NewVerificationTokenRepositoryPostgres(pool)
	user := createTestUser(ctx, t, pool)

	hash := random.HashToken(uuid.NewString())
	token := &models.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hash,
		Type:      models.TokenTypePasswordReset,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, repo.Create(ctx, token))

	_, err := repo.Consume(ctx, hash, models.TokenTypePasswordReset, time.Now().UTC())
	assert.ErrorIs(t, err, domainErrors.ErrTokenNotFound)
}
