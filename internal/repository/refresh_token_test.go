package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenRepository_RotateIsSingleUse(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := testutil.CreateUser(t, db, "reader", false)
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "old-token", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}))

	next := &models.RefreshToken{Token: "new-token", ExpiresAt: now.Add(time.Hour)}
	previous, err := repo.Rotate(ctx, "old-token", next, now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, previous.UserID)
	assert.Equal(t, user.ID, next.UserID)
	assert.False(t, now.Add(time.Second).Before(previous.ExpiresAt))

	_, err = repo.Rotate(ctx, "old-token", &models.RefreshToken{Token: "third", ExpiresAt: now.Add(time.Hour)}, now)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)

	// The failed rotation must not have stored its replacement.
	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("token = ?", "third").Count(&count).Error)
	assert.Zero(t, count)
}

func TestRefreshTokenRepository_Expire(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := testutil.CreateUser(t, db, "reader", false)
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "live", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "stale", UserID: user.ID, ExpiresAt: now.Add(-time.Hour)}))

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"live token", "live", false},
		{"already used", "live", true},
		{"expired", "stale", true},
		{"unknown", "nope", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Expire(ctx, tt.token, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// Rows are kept for audit.
	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRefreshTokenRepository_ConcurrentReuseHasOneWinner(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := testutil.CreateUser(t, db, "reader", false)
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "shared", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Expire(ctx, "shared", now); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRefreshTokenRepository_ExpireAllForUser(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := testutil.CreateUser(t, db, "reader", false)
	for _, tok := range []string{"a", "b"} {
		require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: tok, UserID: user.ID, ExpiresAt: now.Add(time.Hour)}))
	}

	n, err := repo.ExpireAllForUser(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Expire(ctx, "a", now)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}
